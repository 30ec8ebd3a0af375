package report

// Help texts for the two analyses.
const (
	IntervalHelp = "A confidence interval is a range expected to contain the true population mean.\n" +
		"Z methods apply when the population standard deviation is known.\n" +
		"t methods apply when the sample is small and the population standard deviation is unknown."

	TestHelp = "A test of means decides whether a sample mean differs significantly from a reference value.\n" +
		"Z methods apply when the population standard deviation is known.\n" +
		"t methods apply when the sample is small and the population standard deviation is unknown."
)
