package drift

// Option applies a configuration option to the Classifier.
type Option func(*Classifier)

// WithWarnThreshold sets the variance percentage at which a reading
// classifies as yellow.
func WithWarnThreshold(percent float64) Option {
	return func(c *Classifier) {
		if percent > 0 {
			c.warnPercent = percent
		}
	}
}

// WithCriticalThreshold sets the variance percentage at which a reading
// classifies as red.
func WithCriticalThreshold(percent float64) Option {
	return func(c *Classifier) {
		if percent > 0 {
			c.criticalPercent = percent
		}
	}
}
