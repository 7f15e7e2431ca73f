package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/urjafest/sportsfest-backend/models"
	"github.com/urjafest/sportsfest-backend/repositories"
)

type ExportService interface {
	// ExportRegistrations собирает книгу xlsx: по листу на вид спорта
	// со всеми зарегистрированными участниками.
	ExportRegistrations(ctx context.Context) ([]byte, error)
}

type exportService struct {
	sportRepo        repositories.SportRepository
	registrationRepo repositories.RegistrationRepository
}

func NewExportService(sportRepo repositories.SportRepository, registrationRepo repositories.RegistrationRepository) ExportService {
	return &exportService{
		sportRepo:        sportRepo,
		registrationRepo: registrationRepo,
	}
}

var exportHeader = []string{"#", "First Name", "Last Name", "Email", "Gender", "Class", "Student ID", "Mobile", "Registered At"}

func (s *exportService) ExportRegistrations(ctx context.Context) ([]byte, error) {
	ctx, cancel := storeCtx(ctx)
	defer cancel()

	sports, err := s.sportRepo.GetAll(ctx, nil)
	if err != nil {
		return nil, storeError(fmt.Errorf("failed to list sports for export: %w", err))
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, sport := range sports {
		sheet := sanitizeSheetName(sport.Name)
		if i == 0 {
			// Первый лист переименовываем, excelize создаёт книгу с "Sheet1".
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return nil, fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return nil, fmt.Errorf("failed to create sheet %q: %w", sheet, err)
			}
		}

		for col, title := range exportHeader {
			cell, err := excelize.CoordinatesToCellName(col+1, 1)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve header cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, title); err != nil {
				return nil, fmt.Errorf("failed to write header cell: %w", err)
			}
		}

		regs, err := s.registrationRepo.ListBySport(ctx, sport.ID)
		if err != nil {
			return nil, storeError(fmt.Errorf("failed to list registrations for sport %q: %w", sport.Name, err))
		}

		for row, reg := range regs {
			values := registrationRow(row+1, reg)
			for col, value := range values {
				cell, err := excelize.CoordinatesToCellName(col+1, row+2)
				if err != nil {
					return nil, fmt.Errorf("failed to resolve cell: %w", err)
				}
				if err := f.SetCellValue(sheet, cell, value); err != nil {
					return nil, fmt.Errorf("failed to write cell: %w", err)
				}
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func registrationRow(index int, reg *models.Registration) []interface{} {
	values := []interface{}{
		index, "", "", "", "", "", "", "",
		reg.CreatedAt.Format("2006-01-02 15:04"),
	}
	if reg.User != nil {
		values[1] = reg.User.FirstName
		values[2] = reg.User.LastName
		values[3] = reg.User.Email
		values[4] = string(reg.User.Gender)
		values[5] = derefString(reg.User.ClassName)
		values[6] = derefString(reg.User.StudentID)
		values[7] = derefString(reg.User.Mobile)
	}
	return values
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// sanitizeSheetName укорачивает имя и выкидывает символы,
// запрещённые в именах листов Excel.
func sanitizeSheetName(name string) string {
	forbidden := []rune{':', '\\', '/', '?', '*', '[', ']'}
	out := make([]rune, 0, len(name))
	for _, r := range name {
		skip := false
		for _, f := range forbidden {
			if r == f {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, r)
		}
	}
	if len(out) > 31 {
		out = out[:31]
	}
	if len(out) == 0 {
		return "Sheet"
	}
	return string(out)
}
