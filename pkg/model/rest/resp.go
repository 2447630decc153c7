package rest

import "context"

const CodeSuccess int = 2000

var successMeta = Meta{
	Code:    CodeSuccess,
	Message: "OK",
}

type Meta struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type Response struct {
	Meta Meta        `json:"meta"`
	Data interface{} `json:"data"`
}

type ListData struct {
	Rows       interface{} `json:"rows"`
	TotalCount int         `json:"total_count"`
}

func SuccessResp(ctx context.Context, data interface{}) Response {
	return Response{Meta: successMeta, Data: data}
}

func ErrorResp(ctx context.Context, code int, errMsg string, data interface{}) Response {
	return Response{
		Meta: Meta{Code: code, Message: errMsg},
		Data: data,
	}
}

func NewListData(rows interface{}, totalCount int) ListData {
	return ListData{Rows: rows, TotalCount: totalCount}
}
