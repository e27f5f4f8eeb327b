package apimodels

const (
	statusSuccess = "success"
	statusFail    = "fail"

	defaultPageSize = 10
	maxPageSize     = 100
)

type Response struct {
	Status  string      `json:"status"`            // success/fail
	Message string      `json:"message,omitempty"` // текст ошибки
	Data    interface{} `json:"data,omitempty"`
}

type ScrollerResponse struct {
	Response
	RowCount int64 `json:"row_count,omitempty"` // всего записей по фильтру
}

func NewError(message string) Response {
	return Response{Status: statusFail, Message: message}
}

func NewResponse(data interface{}) Response {
	return Response{Status: statusSuccess, Data: data}
}

func NewScrollerResponse(data interface{}, rowCount int64) ScrollerResponse {
	return ScrollerResponse{
		Response: NewResponse(data),
		RowCount: rowCount,
	}
}

type Pagination struct {
	Limit int `json:"limit"` // Записей на странице
	Page  int `json:"page"`  // Страница (1,2,3..)
}

// GetPage returns the page (from 1) and page size with defaults applied.
func (r Pagination) GetPage() (page, limit int) {
	page, limit = 1, defaultPageSize
	if r.Page > 0 {
		page = r.Page
	}
	if r.Limit > 0 {
		limit = r.Limit
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

// Window returns slice bounds of the page within total rows; from == to when the page is past the end.
func (r Pagination) Window(total int) (from, to int) {
	page, limit := r.GetPage()
	from = (page - 1) * limit
	if from >= total {
		return total, total
	}
	to = from + limit
	if to > total {
		to = total
	}
	return from, to
}
