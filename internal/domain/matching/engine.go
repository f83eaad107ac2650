package matching

import (
	"funnel/internal/domain/founder"
	"funnel/internal/domain/vc"

	"github.com/google/uuid"
)

// Anomaly describes a stored VC record the matcher had to skip.
type Anomaly struct {
	VCID uuid.UUID
	Err  error
}

// FilterCandidates applies the hard filter: the founder's ask must fall inside
// the VC's check range (both bounds inclusive) and the founder's sector must be
// one of the VC's sectors by exact string equality. Records whose sectors
// cannot be decoded are excluded and reported as anomalies. Input order is
// preserved.
func FilterCandidates(f founder.Profile, records []vc.Record) ([]vc.Profile, []Anomaly) {
	out := make([]vc.Profile, 0, len(records))
	var anomalies []Anomaly

	for _, r := range records {
		if !r.AdmitsCheck(f.AskAmount) {
			continue
		}

		sectors, err := r.DecodeSectors()
		if err != nil {
			anomalies = append(anomalies, Anomaly{VCID: r.ID, Err: err})
			continue
		}

		p := r.Profile
		p.Sectors = sectors
		if !p.HasSector(f.Sector) {
			continue
		}
		out = append(out, p)
	}

	return out, anomalies
}
