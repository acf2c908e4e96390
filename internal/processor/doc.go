// Package processor is the data processor facade (C8): it decodes raw
// frames via C2, dispatches Snapshot/Update to the order-book engine
// (materializing afterward) and Match to the trade aggregator (publishing
// afterward), and logs decode errors and unknown variants.
//
// Grounded on the teacher's former internal/router.route() dispatch
// switch, reduced to spec.md's three-way fan-out.
package processor
