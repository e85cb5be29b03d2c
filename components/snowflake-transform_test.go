package components_test

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/relloyd/salespipe/components"
	"github.com/relloyd/salespipe/constants"
	"github.com/relloyd/salespipe/rdbms/shared"
)

func TestSnowflakeTransform(t *testing.T) {
	log := newTestLogger(t)
	db, resultChan := shared.NewMockConnectionWithMockTx("snowflake")
	err := components.SnowflakeTransform(context.Background(), &components.SnowflakeTransformConfig{
		Log:                   log,
		Name:                  constants.JobNameTransform,
		Db:                    db,
		TargetSchemaTableName: target.Join(constants.TransformedTableName),
		SelectSql:             components.GetSqlSalesTransformSelect(components.QualifyWith(target)),
	})
	if err != nil {
		t.Fatal(err)
	}
	res := drain(resultChan)
	if len(res) != 1 {
		t.Fatal("expected a single statement; got ", res)
	}
	if !strings.HasPrefix(res[0], "create or replace table ANALYTICS.ADVENTURE_WORKS.transformed_sales_data as SELECT") {
		t.Fatal("unexpected CTAS: ", res[0])
	}
	for _, join := range []string{
		"FROM ANALYTICS.ADVENTURE_WORKS.salesorderdetail s",
		"LEFT JOIN ANALYTICS.ADVENTURE_WORKS.product p",
		"LEFT JOIN ANALYTICS.ADVENTURE_WORKS.productsubcategory sc",
		"LEFT JOIN ANALYTICS.ADVENTURE_WORKS.productcategory c",
		"LEFT JOIN ANALYTICS.ADVENTURE_WORKS.salesorderheader so",
		"LEFT JOIN ANALYTICS.ADVENTURE_WORKS.salesterritory t",
	} {
		if !strings.Contains(res[0], join) {
			t.Fatal("missing join: ", join)
		}
	}
}

// TestSalesTransformSelect runs the transformation query against in-memory copies of the loaded tables.
func TestSalesTransformSelect(t *testing.T) {
	conn := newSqliteConnection(t,
		"create table salesorderdetail (SalesOrderID integer, SalesOrderDetailID integer, OrderQty integer, ProductID integer, UnitPrice float, UnitPriceDiscount float, LineTotal float)",
		"create table product (ProductID integer, Name text, StandardCost float, ListPrice float, ProductSubcategoryID integer)",
		"create table productsubcategory (ProductSubcategoryID integer, ProductCategoryID integer, Name text)",
		"create table productcategory (ProductCategoryID integer, Name text)",
		"create table salesorderheader (SalesOrderID integer, OrderDate timestamp, CustomerID integer, TerritoryID integer, SubTotal float, TaxAmt float, Freight float, TotalDue float)",
		"create table salesterritory (TerritoryID integer, Name text, CountryRegionCode text)",
		"insert into salesorderdetail values (1, 10, 3, 100, 100, 0.1, 270), (1, 11, 1, 999, 5, 0, 5)",
		"insert into product values (100, 'Road-150', 12.5, 20.25, 1)",
		"insert into productsubcategory values (1, 1, 'Road Bikes')",
		"insert into productcategory values (1, 'Bikes')",
		"insert into salesorderheader values (1, '2024-07-16 00:00:00.000', 7, 2, 275, 0, 0, 275)",
		"insert into salesterritory values (2, 'Northwest', 'US')",
	)
	db := conn.(*shared.SqlConnection).DbSql
	rows, err := db.Query(components.GetSqlSalesTransformSelect(nil) + " ORDER BY s.SalesOrderDetailID")
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		t.Fatal(err)
	}
	expectedCols := []string{
		"sales_line_id", "sales_order_id", "customer_id", "territory_name", "country_code", "order_date",
		"unit_price", "quantity", "amount", "ProductID", "product_name", "cost", "list_price", "subcategory", "category",
	}
	if strings.Join(cols, ",") != strings.Join(expectedCols, ",") {
		t.Fatal("unexpected projection: ", cols)
	}
	type line struct {
		lineID      int64
		unitPrice   float64
		quantity    int64
		amount      float64
		territory   sql.NullString
		productName sql.NullString
		cost        sql.NullFloat64
		listPrice   sql.NullFloat64
		subcategory sql.NullString
		category    sql.NullString
	}
	lines := make([]line, 0)
	for rows.Next() {
		var l line
		var orderID, customerID, productID interface{}
		var country, orderDate interface{}
		if err := rows.Scan(&l.lineID, &orderID, &customerID, &l.territory, &country, &orderDate,
			&l.unitPrice, &l.quantity, &l.amount, &productID, &l.productName, &l.cost, &l.listPrice, &l.subcategory, &l.category); err != nil {
			t.Fatal(err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 {
		t.Fatal("expected every order line to be kept; got ", len(lines))
	}
	l := lines[0]
	if l.unitPrice != 90.00 || l.amount != 270.00 || l.quantity != 3 {
		t.Fatalf("unexpected measures: unit_price=%v amount=%v quantity=%v", l.unitPrice, l.amount, l.quantity)
	}
	if l.productName.String != "Road-150" || l.cost.Float64 != 12.5 || l.listPrice.Float64 != 20.25 ||
		l.subcategory.String != "Road Bikes" || l.category.String != "Bikes" || l.territory.String != "Northwest" {
		t.Fatalf("unexpected dimensions: %+v", l)
	}
	// Missing product gives NULL product attributes.
	l = lines[1]
	if l.productName.Valid || l.cost.Valid || l.listPrice.Valid || l.subcategory.Valid || l.category.Valid {
		t.Fatalf("expected NULL product attributes: %+v", l)
	}
	if !l.territory.Valid {
		t.Fatal("expected territory from the order header")
	}
}
