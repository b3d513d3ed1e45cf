package run

import (
	"strconv"
	"strings"

	"rmvc/domain/core"
	"rmvc/domain/rmvc"
	"rmvc/domain/softset"
)

// Fingerprint hashes U, Φ and the parameters. Two runs over the same
// relation with the same parameters always share a fingerprint.
func Fingerprint(res *rmvc.Result, params Params) core.Hash {
	if res == nil {
		return core.HashParts("params", paramsString(params))
	}
	return SetFingerprint(res.Set, params)
}

// SetFingerprint is Fingerprint for a soft set that has not been analyzed.
func SetFingerprint(s *softset.SoftSet, params Params) core.Hash {
	parts := []string{"universe", strings.Join(s.Universe(), "\x1f")}
	for _, c := range s.Criteria() {
		parts = append(parts, c.Key, c.Label, strings.Join(c.Members, "\x1f"))
	}
	parts = append(parts, "params", paramsString(params))
	return core.HashParts(parts...)
}

func paramsString(p Params) string {
	return "orientation:" + p.Orientation +
		"|min_size:" + strconv.Itoa(p.MinCriterionSize) +
		"|threshold:" + p.Threshold
}

// VerifyFingerprint recomputes the record's fingerprint.
func VerifyFingerprint(r *Record) error {
	if got := Fingerprint(r.Result, r.Params); got != r.Fingerprint {
		return core.NewFingerprintError(r.Fingerprint.Short(), got.Short())
	}
	return nil
}
