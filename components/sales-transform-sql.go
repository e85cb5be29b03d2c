package components

import (
	"fmt"

	"github.com/relloyd/salespipe/rdbms"
)

// TableQualifierFunc returns the name to use in SQL for a warehouse table.
type TableQualifierFunc func(table string) string

// QualifyWith returns a TableQualifierFunc that places tables beside st.
func QualifyWith(st rdbms.SchemaTable) TableQualifierFunc {
	return func(table string) string {
		return st.Join(table).String()
	}
}

// Unqualified leaves table names untouched.
func Unqualified(table string) string {
	return table
}

// GetSqlSalesTransformSelect builds the denormalising query over the loaded sales tables.
// Order lines drive the query so every line is kept; missing dimensions produce NULLs.
func GetSqlSalesTransformSelect(qualify TableQualifierFunc) string {
	if qualify == nil {
		qualify = Unqualified
	}
	return fmt.Sprintf(`SELECT
    s.SalesOrderDetailID AS sales_line_id,
    s.SalesOrderID AS sales_order_id,
    so.CustomerID AS customer_id,
    t.Name AS territory_name,
    t.CountryRegionCode AS country_code,
    so.OrderDate AS order_date,
    ROUND(s.UnitPrice*(1- s.UnitPriceDiscount), 2) AS unit_price,
    s.OrderQty AS quantity,
    ROUND(s.LineTotal, 2) AS amount,
    s.ProductID,
    p.Name AS product_name,
    ROUND(p.StandardCost, 2) AS cost,
    ROUND(p.ListPrice, 2) AS list_price,
    sc.Name AS subcategory,
    c.Name AS category
FROM %v s
LEFT JOIN %v p ON s.ProductID = p.ProductID
LEFT JOIN %v sc ON p.ProductSubcategoryID = sc.ProductSubcategoryID
LEFT JOIN %v c ON sc.ProductCategoryID = c.ProductCategoryID
LEFT JOIN %v so ON s.SalesOrderID = so.SalesOrderID
LEFT JOIN %v t ON so.TerritoryID = t.TerritoryID`,
		qualify("salesorderdetail"),
		qualify("product"),
		qualify("productsubcategory"),
		qualify("productcategory"),
		qualify("salesorderheader"),
		qualify("salesterritory"),
	)
}
