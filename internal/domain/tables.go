package domain

var Tables = []interface{}{
	// System
	&SysConfig{},
	&SysUser{},
	&SysOpLog{},
	// Catalog
	&Manufacturer{},
	&Car{},
	&Category{},
	&Part{},
	// Inventory
	&Warehouse{},
	&WarehouseStock{},
	// Ordering
	&CartLine{},
	&Order{},
	&OrderItem{},
}
