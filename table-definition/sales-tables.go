package tabledefinition

// SalesTables is the AdventureWorks sales extract, in job-creation order.
var SalesTables = []TableSpec{
	{
		Name:        "SalesOrderHeader",
		SourceQuery: "SELECT SalesOrderID, OrderDate, CustomerID, TerritoryID, SubTotal, TaxAmt, Freight, TotalDue FROM Sales.SalesOrderHeader",
		Schema: []Column{
			{"SalesOrderID", ColumnTypeInteger},
			{"OrderDate", ColumnTypeTimestamp},
			{"CustomerID", ColumnTypeInteger},
			{"TerritoryID", ColumnTypeInteger},
			{"SubTotal", ColumnTypeFloat},
			{"TaxAmt", ColumnTypeFloat},
			{"Freight", ColumnTypeFloat},
			{"TotalDue", ColumnTypeFloat},
		},
	},
	{
		Name:        "SalesOrderDetail",
		SourceQuery: "SELECT SalesOrderID, SalesOrderDetailID, OrderQty, ProductID, UnitPrice, UnitPriceDiscount, LineTotal FROM Sales.SalesOrderDetail",
		Schema: []Column{
			{"SalesOrderID", ColumnTypeInteger},
			{"SalesOrderDetailID", ColumnTypeInteger},
			{"OrderQty", ColumnTypeInteger},
			{"ProductID", ColumnTypeInteger},
			{"UnitPrice", ColumnTypeFloat},
			{"UnitPriceDiscount", ColumnTypeFloat},
			{"LineTotal", ColumnTypeFloat},
		},
	},
	{
		Name:        "SalesTerritory",
		SourceQuery: "SELECT TerritoryID, Name, CountryRegionCode FROM Sales.SalesTerritory",
		Schema: []Column{
			{"TerritoryID", ColumnTypeInteger},
			{"Name", ColumnTypeString},
			{"CountryRegionCode", ColumnTypeString},
		},
	},
	{
		Name:        "Product",
		SourceQuery: "SELECT ProductID, Name, StandardCost, ListPrice, ProductSubcategoryID FROM Production.Product",
		Schema: []Column{
			{"ProductID", ColumnTypeInteger},
			{"Name", ColumnTypeString},
			{"StandardCost", ColumnTypeFloat},
			{"ListPrice", ColumnTypeFloat},
			{"ProductSubcategoryID", ColumnTypeInteger},
		},
	},
	{
		Name:        "ProductSubcategory",
		SourceQuery: "SELECT ProductSubcategoryID, ProductCategoryID, Name FROM Production.ProductSubcategory",
		Schema: []Column{
			{"ProductSubcategoryID", ColumnTypeInteger},
			{"ProductCategoryID", ColumnTypeInteger},
			{"Name", ColumnTypeString},
		},
	},
	{
		Name:        "ProductCategory",
		SourceQuery: "SELECT ProductCategoryID, Name FROM Production.ProductCategory",
		Schema: []Column{
			{"ProductCategoryID", ColumnTypeInteger},
			{"Name", ColumnTypeString},
		},
	},
}

// NewSalesRegistry returns the registry of SalesTables.
func NewSalesRegistry() *Registry {
	return MustNewRegistry(SalesTables...)
}
