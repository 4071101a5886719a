package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexTimeAcceptsPipelineFormats(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"rfc3339", `"2026-08-30T09:15:00Z"`, time.Date(2026, 8, 30, 9, 15, 0, 0, time.UTC)},
		{"naive isoformat", `"2026-08-30T09:15:00"`, time.Date(2026, 8, 30, 9, 15, 0, 0, time.UTC)},
		{"naive with micros", `"2026-08-30T09:15:00.123456"`, time.Date(2026, 8, 30, 9, 15, 0, 123456000, time.UTC)},
		{"space separated", `"2026-08-30 09:15:00"`, time.Date(2026, 8, 30, 9, 15, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ft FlexTime
			require.NoError(t, json.Unmarshal([]byte(tt.in), &ft))
			assert.True(t, ft.Time.Equal(tt.want), "got %v want %v", ft.Time, tt.want)
		})
	}
}

func TestFlexTimeRejectsGarbage(t *testing.T) {
	var ft FlexTime
	assert.Error(t, json.Unmarshal([]byte(`"yesterday-ish"`), &ft))
}

func TestFlexTimeNullAndEmpty(t *testing.T) {
	var ft FlexTime
	require.NoError(t, json.Unmarshal([]byte(`null`), &ft))
	assert.Nil(t, ft.TimePtr())

	var nilFT *FlexTime
	assert.Nil(t, nilFT.TimePtr())
}

func validResult() *PipelineResult {
	return &PipelineResult{
		Defects: []PipelineDefect{{
			Type:      "pothole",
			Severity:  "high",
			Status:    StatusForChecking,
			SegmentID: 1,
		}},
		IRIMeasurement: &PipelineIRIMeasurement{SegmentID: 1, IRIValue: 3.2},
		CoverageLog:    &PipelineCoverageLog{SegmentID: 1, SweepFrequency: 1},
	}
}

func TestPipelineResultValidate(t *testing.T) {
	require.NoError(t, validResult().Validate())

	// Empty defect list is valid: a clean road is a legal result.
	empty := validResult()
	empty.Defects = nil
	require.NoError(t, empty.Validate())

	tests := []struct {
		name   string
		mutate func(*PipelineResult)
	}{
		{"defect missing type", func(r *PipelineResult) { r.Defects[0].Type = "" }},
		{"defect missing severity", func(r *PipelineResult) { r.Defects[0].Severity = "" }},
		{"defect missing status", func(r *PipelineResult) { r.Defects[0].Status = "" }},
		{"defect missing segment", func(r *PipelineResult) { r.Defects[0].SegmentID = 0 }},
		{"no iri measurement", func(r *PipelineResult) { r.IRIMeasurement = nil }},
		{"iri without segment", func(r *PipelineResult) { r.IRIMeasurement.SegmentID = 0 }},
		{"no coverage log", func(r *PipelineResult) { r.CoverageLog = nil }},
		{"coverage without segment", func(r *PipelineResult) { r.CoverageLog.SegmentID = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validResult()
			tt.mutate(r)
			err := r.Validate()
			require.Error(t, err)

			var contractErr *ContractError
			assert.ErrorAs(t, err, &contractErr)
		})
	}
}
