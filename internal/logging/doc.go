// Package logging is driftbook's leveled, categorized logging facade.
//
// It wraps logrus with the eight-level scheme driftbook's components log
// against (Critical, Error, Warn, Info, Debug, TraceL1, TraceL2, TraceL3),
// stamps every record with a category field, and keeps a ring buffer of the
// last ten Trace records that gets attached to the next Error-or-above
// record as backtrace context.
package logging
