package service

import (
	"bytes"
	"context"
	"fmt"

	"ewarranty/internal/domain"
	"ewarranty/internal/dto"
	"ewarranty/internal/repository"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Warranties"

var exportHeaders = []string{
	"Warranty No", "Branch Code", "Shop", "Installation Date", "Approval Status",
	"Client Name", "Client Contact", "Client Email",
	"Car Brand", "Car Model", "Car Plate No", "Car Chassis No",
	"Car Part", "Film Serial No", "Product", "Warranty (months)", "Expires",
	"Part Approved", "Part Status",
}

type ExportService interface {
	// ExportWarranties renders the warranty register as XLSX, one row per live part.
	ExportWarranties(ctx context.Context, actor domain.Actor, filter dto.WarrantyFilter) ([]byte, error)
}

type exportService struct {
	warranties repository.WarrantyRepository
}

func NewExportService(warranties repository.WarrantyRepository) ExportService {
	return &exportService{warranties: warranties}
}

func (s *exportService) ExportWarranties(ctx context.Context, actor domain.Actor, filter dto.WarrantyFilter) ([]byte, error) {
	if err := actor.RequireAdmin("export warranties"); err != nil {
		return nil, err
	}
	list, err := s.warranties.ListDetailed(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list warranties: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}
	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(exportSheet, cell, h); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	lastCol, _ := excelize.ColumnNumberToName(len(exportHeaders))
	_ = f.SetCellStyle(exportSheet, "A1", lastCol+"1", headerStyle)
	_ = f.SetColWidth(exportSheet, "A", lastCol, 18)

	row := 2
	for i := range list {
		detail := warrantyToDetail(&list[i])
		w := detail.Warranty
		for _, p := range detail.Parts {
			product := p.ProductBrand
			for _, label := range []string{p.ProductSeries, p.ProductName} {
				if label != "" {
					product += " " + label
				}
			}
			values := []any{
				w.WarrantyNo, w.BranchCode, w.ShopName, w.InstallationDate, w.ApprovalStatus,
				w.ClientName, w.ClientContact, w.ClientEmail,
				w.CarBrand, w.CarModel, w.CarPlateNo, w.CarChassisNo,
				p.CarPartName, p.FilmSerialNumber, product, p.WarrantyInMonths, p.ExpiresAt,
				p.IsApproved, p.Status,
			}
			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
				return nil, fmt.Errorf("write row %d: %w", row, err)
			}
			row++
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
