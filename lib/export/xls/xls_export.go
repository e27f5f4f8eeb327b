package xlsexport

import (
	"approvals-backend/lib/utils/helpers"
	approvalapimodels "approvals-backend/models/api/approval"
	"bytes"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

type Provider interface {
	ExportHistory(list []approvalapimodels.HistoryView) (*bytes.Buffer, error)
	ExportOverdue(list []approvalapimodels.ApprovalView) (*bytes.Buffer, error)
}

var Instance Provider

func NewHandler() {
	Instance = impl{}
}

type impl struct{}

const (
	dateLayout     = "02.01.2006"
	dateTimeLayout = "02.01.2006 15:04:05"
	defaultSheet   = "Sheet1"
)

var historyHeaders = []string{"Дата", "Событие", "Уровень", "Участник", "Статус до", "Статус после", "Комментарий"}

var overdueHeaders = []string{"Документ", "Номер", "Уровень", "Согласующий", "Инициатор", "Сумма", "Дата запроса", "Срок", "Статус"}

func (i impl) ExportHistory(list []approvalapimodels.HistoryView) (*bytes.Buffer, error) {
	return export("История согласования", historyHeaders, len(list), func(f *excelize.File, row, idx int) error {
		item := list[idx]
		return writeRow(f, defaultSheet, row,
			item.CreatedAt.Format(dateTimeLayout),
			item.Event.ToHuman(),
			item.LevelNumber,
			item.ActorName,
			item.FromStatus,
			item.ToStatus,
			item.Comment)
	})
}

func (i impl) ExportOverdue(list []approvalapimodels.ApprovalView) (*bytes.Buffer, error) {
	return export("Просроченные", overdueHeaders, len(list), func(f *excelize.File, row, idx int) error {
		item := list[idx]
		return writeRow(f, defaultSheet, row,
			item.DocumentType,
			item.DocumentNumber,
			item.LevelNumber,
			item.ApproverName,
			item.RequestedByName,
			item.DocumentAmount.StringFixed(2),
			item.RequestedDate.Format(dateLayout),
			helpers.FormatTime(item.DueDate, dateLayout),
			item.StatusName)
	})
}

func export(sheetName string, headers []string, count int, writeItem func(f *excelize.File, row, idx int) error) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.WithError(err).Error("ошибка закрытия файла")
		}
	}()
	row, err := writeHeader(f, defaultSheet, 0, headers)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка формирования заголовка в xlsx")
	}
	if count != 0 {
		if err = applyDataCellStyle(f, defaultSheet, 1, row+1, len(headers), row+count); err != nil {
			return nil, errors.Wrap(err, "ошибка формирования стиля таблицы в xlsx")
		}
		for idx := 0; idx < count; idx++ {
			row++
			if err = writeItem(f, row, idx); err != nil {
				return nil, errors.Wrap(err, "ошибка формирования таблицы с данными в xlsx")
			}
		}
	}
	if err = f.SetSheetName(defaultSheet, sheetName); err != nil {
		return nil, errors.Wrap(err, "ошибка переименования листа xlsx")
	}
	return f.WriteToBuffer()
}
