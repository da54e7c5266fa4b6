package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streetplan/internal/core"
	"streetplan/internal/types"
)

func testValidator() *core.Validator {
	return core.NewValidator(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestParseSeed_Default(t *testing.T) {
	p, err := parseSeed(defaultProjectYAML, testValidator())
	require.NoError(t, err)

	assert.Equal(t, "Voorbeeldstraat Noord", p.Name)
	assert.Equal(t, "Binnenstad", p.AreaName)
	assert.Equal(t, 72.0, p.BaselineParkingPressure)
	assert.Equal(t, 48, p.BaselineParkingSpots)
	require.NotNil(t, p.Notes)

	require.Len(t, p.Intersections, 3)
	assert.Equal(t, types.Intersection{X: 420, Y: 120}, p.Intersections[1])

	require.Len(t, p.Zones, 3)
	assert.Equal(t, types.ZoneGreen, p.Zones[2].Type)
	require.NotNil(t, p.Zones[0].Capacity)
	assert.Equal(t, 14, *p.Zones[0].Capacity)
	assert.True(t, json.Valid([]byte(p.Zones[0].GeometryJSON)))

	var layout map[string]any
	require.NoError(t, json.Unmarshal([]byte(p.LayoutJSON), &layout))
	assert.EqualValues(t, 800, layout["width"])

	require.Len(t, p.CostConfigs, 5)
	assert.Equal(t, types.CostConfig{Key: types.CostSharedCar, UnitCost: 9000, UnitOpex: 1200}, p.CostConfigs[2])
}

func TestParseSeed_StringJSONFields(t *testing.T) {
	doc := []byte(`
name: Kleine straat
areaName: Oost
baselineParkingPressure: 40.5
baselineParkingSpots: 12
layoutJson: '{"width":400}'
zones:
  - type: OTHER
    geometryJson: '{"x":1}'
`)
	p, err := parseSeed(doc, testValidator())
	require.NoError(t, err)
	assert.Equal(t, `{"width":400}`, p.LayoutJSON)
	assert.Equal(t, 40.5, p.BaselineParkingPressure)
	assert.Empty(t, p.Intersections)
	assert.Empty(t, p.CostConfigs)
}

func TestParseSeed_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ``},
		{"not yaml", "name: [unclosed"},
		{"unknown field", "name: A\nareaName: B\nbaselineParkingPressure: 1\nbaselineParkingSpots: 1\nlayoutJson: '{}'\ncolour: red\n"},
		{"missing name", "areaName: B\nbaselineParkingPressure: 1\nbaselineParkingSpots: 1\nlayoutJson: '{}'\n"},
		{"pressure out of range", "name: A\nareaName: B\nbaselineParkingPressure: 300\nbaselineParkingSpots: 1\nlayoutJson: '{}'\n"},
		{"zone not a mapping", "name: A\nareaName: B\nbaselineParkingPressure: 1\nbaselineParkingSpots: 1\nlayoutJson: '{}'\nzones: [PARKING]\n"},
		{
			"duplicate cost key",
			"name: A\nareaName: B\nbaselineParkingPressure: 1\nbaselineParkingSpots: 1\nlayoutJson: '{}'\n" +
				"costConfigs:\n  - {key: bikeUnit, unitCost: 1, unitOpex: 1}\n  - {key: bikeUnit, unitCost: 2, unitOpex: 2}\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseSeed([]byte(tt.doc), testValidator())
			assert.Error(t, err)
		})
	}
}

func TestSeedCmd_StoresDefaultProject(t *testing.T) {
	projects := &fakeProjectStore{}
	a, closed := testApp(projects, &fakeDesignStore{})

	out, err := execute(t, a, "seed")
	require.NoError(t, err)

	assert.Equal(t, "Seeded project prj_seeded\n", out)
	require.Len(t, projects.created, 1)
	assert.Equal(t, "Voorbeeldstraat Noord", projects.created[0].Name)
	assert.True(t, *closed, "database is closed after seeding")
}

func TestSeedCmd_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"name: Dorpsstraat\nareaName: Centrum\nbaselineParkingPressure: 55\nbaselineParkingSpots: 20\nlayoutJson: {width: 300}\n",
	), 0o600))

	projects := &fakeProjectStore{}
	a, _ := testApp(projects, &fakeDesignStore{})

	_, err := execute(t, a, "seed", "--file", path)
	require.NoError(t, err)
	require.Len(t, projects.created, 1)
	assert.Equal(t, "Dorpsstraat", projects.created[0].Name)
}

func TestSeedCmd_DryRun(t *testing.T) {
	projects := &fakeProjectStore{}
	a, _ := testApp(projects, &fakeDesignStore{})
	opened := false
	open := a.open
	a.open = func(ctx context.Context, l *slog.Logger) (*backend, error) {
		opened = true
		return open(ctx, l)
	}

	out, err := execute(t, a, "seed", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, `Project "Voorbeeldstraat Noord" (Binnenstad)`)
	assert.Contains(t, out, "intersections: 3, zones: 3, cost configs: 5")
	assert.False(t, opened, "dry run never connects")
	assert.Empty(t, projects.created)
}

func TestSeedCmd_MissingFile(t *testing.T) {
	_, err := execute(t, nil, "seed", "--file", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading seed file")
}
