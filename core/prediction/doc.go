// Package prediction estimates a vehicle's daily driving rate from its
// service visit history and projects future odometer readings to decide
// whether a service threshold will be crossed within the configured
// horizon. All operations are read-only; missing data is reported as an
// explicit no-estimate result rather than an error.
package prediction
