package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/vacation-admin-console/pkg/errors"
	"github.com/noah-isme/vacation-admin-console/pkg/export"
)

type staticDataset struct {
	key   string
	data  export.Dataset
	title string
}

func (s staticDataset) Key() string { return s.key }

func (s staticDataset) Dataset() (export.Dataset, string) { return s.data, s.title }

type failingPDF struct{}

func (failingPDF) Render(export.Dataset, string) ([]byte, error) {
	return nil, errors.New("font missing")
}

func sampleScreenDataset() staticDataset {
	return staticDataset{
		key:   ScreenTeamRequests,
		title: "Solicitudes del equipo",
		data: export.Dataset{
			Headers: []string{"ID", "Empleado"},
			Rows: []map[string]string{
				{"ID": "1", "Empleado": "Ana Pérez"},
				{"ID": "2", "Empleado": "Luis Gómez"},
			},
		},
	}
}

func newExportServiceForTest(cfg ExportConfig, pdf pdfRenderer) *ExportService {
	svc := NewExportService(cfg, zap.NewNop(), nil, pdf)
	svc.now = func() time.Time { return time.Date(2025, 3, 10, 8, 30, 0, 0, time.UTC) }
	return svc
}

func TestExportServiceRenderCSV(t *testing.T) {
	svc := newExportServiceForTest(ExportConfig{Enabled: true, MaxRows: 10}, nil)

	file, err := svc.Render(sampleScreenDataset(), "")
	require.NoError(t, err)
	assert.Equal(t, "team-requests_20250310_083000.csv", file.Filename)
	assert.True(t, strings.HasPrefix(file.ContentType, "text/csv"))
	assert.Contains(t, string(file.Payload), "Ana Pérez")
}

func TestExportServiceRenderPDF(t *testing.T) {
	svc := newExportServiceForTest(ExportConfig{Enabled: true}, nil)

	file, err := svc.Render(sampleScreenDataset(), "PDF")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Payload), "%PDF"))
}

func TestExportServiceGuards(t *testing.T) {
	disabled := newExportServiceForTest(ExportConfig{Enabled: false}, nil)
	_, err := disabled.Render(sampleScreenDataset(), ExportFormatCSV)
	assert.ErrorIs(t, err, appErrors.ErrExportDisabled)

	capped := newExportServiceForTest(ExportConfig{Enabled: true, MaxRows: 1}, nil)
	_, err = capped.Render(sampleScreenDataset(), ExportFormatCSV)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	enabled := newExportServiceForTest(ExportConfig{Enabled: true}, nil)
	_, err = enabled.Render(sampleScreenDataset(), "xlsx")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestExportServiceRendererFailure(t *testing.T) {
	svc := newExportServiceForTest(ExportConfig{Enabled: true}, failingPDF{})
	_, err := svc.Render(sampleScreenDataset(), ExportFormatPDF)
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}
