package practice

// Percent is n*100/d rounded half up; 0 when d is 0.
func Percent(n, d int) int {
	if d <= 0 || n <= 0 {
		return 0
	}
	return (n*200 + d) / (2 * d)
}

// Passed is true once every question of a non-empty topic is answered
// correctly. Timed sessions must also not have run out of time.
func Passed(correct, total int, timedOut bool) bool {
	return total > 0 && correct == total && !timedOut
}
