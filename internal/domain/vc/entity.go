package vc

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("vc profile not found")
	ErrSlugTaken = errors.New("vc slug already taken")
)

type Profile struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	FirmName      string
	Slug          string
	Thesis        string
	Sectors       []string
	MinCheck      int64
	MaxCheck      int64
	MondayBoardID *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Record is a VC row as stored. Sectors stay encoded so that a malformed
// value can be excluded per record instead of failing the whole query.
type Record struct {
	Profile
	RawSectors []byte
}

func (r Record) DecodeSectors() ([]string, error) {
	var out []string
	if err := json.Unmarshal(r.RawSectors, &out); err != nil {
		return nil, fmt.Errorf("decode sectors for vc %s: %w", r.ID, err)
	}
	return out, nil
}

func EncodeSectors(sectors []string) ([]byte, error) {
	if sectors == nil {
		sectors = []string{}
	}
	return json.Marshal(sectors)
}

// CandidateFilter selects VCs whose check range admits AskAmount.
type CandidateFilter struct {
	AskAmount int64
}

func (p Profile) AdmitsCheck(amount int64) bool {
	return p.MinCheck <= amount && amount <= p.MaxCheck
}

func (p Profile) HasSector(s string) bool {
	for _, v := range p.Sectors {
		if v == s {
			return true
		}
	}
	return false
}
