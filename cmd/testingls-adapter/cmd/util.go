package cmd

func exitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
