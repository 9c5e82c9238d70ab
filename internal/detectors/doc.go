// Package detectors holds the command classifiers. Each detector is data: a
// safe list checked first, then categories evaluated by explicit priority
// where the first match produces the single finding. All patterns are RE2,
// so matching time stays linear in the input size.
package detectors
