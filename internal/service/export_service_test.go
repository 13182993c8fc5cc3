package service

import (
	"bytes"
	"context"
	"testing"

	"ewarranty/internal/domain"
	"ewarranty/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportWarranties(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	_, err := f.warranties.Create(ctx, f.staff, f.warrantyRequest("2025-06-01", "FWS", "R1"))
	require.NoError(t, err)
	_, err = f.warranties.Create(ctx, f.staff, f.warrantyRequest("2025-06-02", "L1"))
	require.NoError(t, err)

	svc := NewExportService(memWarranties{f.store})

	_, err = svc.ExportWarranties(ctx, f.staff, dto.WarrantyFilter{})
	var fe *domain.ForbiddenError
	require.ErrorAs(t, err, &fe)

	data, err := svc.ExportWarranties(ctx, f.admin, dto.WarrantyFilter{})
	require.NoError(t, err)

	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4, "header plus one row per part")
	assert.Equal(t, exportHeaders, rows[0])
	assert.Equal(t, "PJ0420250601001", rows[1][0])
	assert.Equal(t, "Front Windscreen", rows[1][12])
	assert.Equal(t, "SN-001", rows[1][13])
	assert.Equal(t, "3M CR CR70", rows[1][14])
	assert.Equal(t, "2030-06-01", rows[1][16])
	assert.Equal(t, "PJ0420250602001", rows[3][0])
}
