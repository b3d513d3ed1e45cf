// Package rmvc computes Relational Membership Values over a soft set.
//
// Given (U, Φ), every candidate u outside a criterion's set Φ(e) receives a
// membership degree
//
//	M(u, e) = δ(u, e) / γ(e)
//	δ(u, e) = Σ_{v ∈ Φ(e)} |{e_j : {u, v} ⊆ Φ(e_j)}|
//	γ(e)    = |Φ(e)| · (m − 1)
//
// while members get M(u, e) = 1 and criteria with γ(e) = 0 give 0. Every
// value lies in [0, 1]. A non-member can also reach 1, when each other
// criterion holding u contains all of Φ(e); it is still not a member. Scores
// are column sums of M; the ranking orders candidates by descending score
// and ascending natural identifier.
//
// All values are exact big.Rat. Floats appear only through Float, Approx and
// FormatRat, which exist for display.
package rmvc
