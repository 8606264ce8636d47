// Package reminder orchestrates the periodic sweep over each tenant's
// vehicle fleet. For vehicles whose projected mileage crosses the next
// service threshold it persists a reminder record and drives the SMS
// notification sink, sending at most one reminder per vehicle per
// suppression window.
package reminder
