// Package converter holds the executable descriptor shared by the task
// builder, the track decision engine and the execution engine, plus the
// Runner abstraction used for identification tools.
package converter
