// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package txsandbox

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Revision is an enumeration for EVM specification revisions (aka. Hard-Forks).
// Revisions are ordered, a later revision includes all rules of its
// predecessors.
type Revision int

// The list of revisions supported by the sandbox.
const (
	R00_Frontier Revision = iota
	R01_FrontierThawing
	R02_Homestead
	R03_DAOFork
	R04_Tangerine
	R05_SpuriousDragon
	R06_Byzantium
	R07_Constantinople
	R08_Petersburg
	R09_Istanbul
	R10_MuirGlacier
	R11_Berlin
	R12_London
	R13_ArrowGlacier
	R14_GrayGlacier
	R15_Merge
	R16_Shanghai
	R17_Cancun
	numRevisions int = iota
)

// LatestRevision is the most recent ruleset known to the sandbox. Unknown
// revision tags resolve to this revision.
const LatestRevision = R17_Cancun

// LatestTag is the tag explicitly naming LatestRevision.
const LatestTag = "LATEST"

var revisionNames = [...]string{
	R00_Frontier:        "Frontier",
	R01_FrontierThawing: "FrontierThawing",
	R02_Homestead:       "Homestead",
	R03_DAOFork:         "DAOFork",
	R04_Tangerine:       "Tangerine",
	R05_SpuriousDragon:  "SpuriousDragon",
	R06_Byzantium:       "Byzantium",
	R07_Constantinople:  "Constantinople",
	R08_Petersburg:      "Petersburg",
	R09_Istanbul:        "Istanbul",
	R10_MuirGlacier:     "MuirGlacier",
	R11_Berlin:          "Berlin",
	R12_London:          "London",
	R13_ArrowGlacier:    "ArrowGlacier",
	R14_GrayGlacier:     "GrayGlacier",
	R15_Merge:           "Merge",
	R16_Shanghai:        "Shanghai",
	R17_Cancun:          "Cancun",
}

// revisionTags lists the tags accepted by ParseRevisionTag. Matching is
// case-sensitive. Homestead is only reachable through the misspelled tag
// HOMESTAD used by existing clients; HOMESTEAD is not a known tag and
// resolves to LatestRevision like any other unknown tag.
var revisionTags = map[string]Revision{
	"FRONTIER":         R00_Frontier,
	"FRONTIER_THAWING": R01_FrontierThawing,
	"HOMESTAD":         R02_Homestead,
	"DAO_FORK":         R03_DAOFork,
	"TANGERINE":        R04_Tangerine,
	"SPURIOUS_DRAGON":  R05_SpuriousDragon,
	"BYZANTIUM":        R06_Byzantium,
	"CONSTANTINOPLE":   R07_Constantinople,
	"PETERSBURG":       R08_Petersburg,
	"ISTANBUL":         R09_Istanbul,
	"MUIR_GLACIER":     R10_MuirGlacier,
	"BERLIN":           R11_Berlin,
	"LONDON":           R12_London,
	"ARROW_GLACIER":    R13_ArrowGlacier,
	"GRAY_GLACIER":     R14_GrayGlacier,
	"MERGE":            R15_Merge,
	"SHANGHAI":         R16_Shanghai,
	"CANCUN":           R17_Cancun,
	LatestTag:          LatestRevision,
}

// ParseRevisionTag resolves a protocol version tag to a revision. Tags not
// in the known set resolve to LatestRevision instead of failing.
func ParseRevisionTag(tag string) Revision {
	revision, _ := LookupRevisionTag(tag)
	return revision
}

// LookupRevisionTag is like ParseRevisionTag but additionally reports whether
// the tag was recognized or the fallback to LatestRevision was applied.
func LookupRevisionTag(tag string) (Revision, bool) {
	if revision, found := revisionTags[tag]; found {
		return revision, true
	}
	return LatestRevision, false
}

// RevisionTags returns all accepted revision tags in sorted order.
func RevisionTags() []string {
	res := make([]string, 0, len(revisionTags))
	for tag := range revisionTags {
		res = append(res, tag)
	}
	slices.Sort(res)
	return res
}

// GetAllKnownRevisions returns all revisions in chronological order.
func GetAllKnownRevisions() []Revision {
	res := make([]Revision, 0, numRevisions)
	for i := 0; i < numRevisions; i++ {
		res = append(res, Revision(i))
	}
	return res
}

func (r Revision) String() string {
	if r < 0 || int(r) >= numRevisions {
		return fmt.Sprintf("Revision(%d)", r)
	}
	return revisionNames[r]
}

func (r Revision) MarshalJSON() ([]byte, error) {
	if r < 0 || int(r) >= numRevisions {
		return nil, &json.UnsupportedValueError{Str: r.String()}
	}
	return json.Marshal(r.String())
}

func (r *Revision) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for i, name := range revisionNames {
		if name == s {
			*r = Revision(i)
			return nil
		}
	}
	return fmt.Errorf("unknown revision: %q", s)
}
