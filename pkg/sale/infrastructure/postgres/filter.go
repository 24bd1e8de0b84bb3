package postgres

import (
	"strconv"
	"strings"

	"saleservice/pkg/sale/domain/model"
)

// whereClause turns a sale filter into a WHERE clause with positional arguments.
// Only column names are written into the query text; every value goes through args.
func whereClause(filter model.SaleFilter) (string, []interface{}) {
	var (
		conditions []string
		args       []interface{}
	)
	add := func(condition string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, condition+" $"+strconv.Itoa(len(args)))
	}

	if filter.StoreID != nil {
		add("store_id =", *filter.StoreID)
	}
	if filter.PosID != nil {
		add("pos_id =", *filter.PosID)
	}
	if filter.OperatorID != nil {
		add("operator_id =", *filter.OperatorID)
	}
	if filter.DateFrom != nil {
		add("sale_datetime >=", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		add("sale_datetime <=", *filter.DateTo)
	}
	if filter.Status != nil {
		add("status =", string(*filter.Status))
	}
	if filter.ClientSaleID != nil {
		add("client_sale_id =", *filter.ClientSaleID)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// pageClause appends LIMIT and OFFSET placeholders after the filter arguments.
func pageClause(filter model.SaleFilter, args []interface{}) (string, []interface{}) {
	args = append(args, filter.PageSize, filter.Offset())
	return " ORDER BY sale_datetime DESC, order_number DESC LIMIT $" + strconv.Itoa(len(args)-1) +
		" OFFSET $" + strconv.Itoa(len(args)), args
}
