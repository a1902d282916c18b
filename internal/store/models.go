package store

// Model names of the back-office.
const (
	ModelUser           = "User"
	ModelEmployee       = "Employee"
	ModelCustomer       = "Customer"
	ModelProduct        = "Product"
	ModelStock          = "Stock"
	ModelProductImage   = "ProductImage"
	ModelRoleDefinition = "RoleDefinition"
	ModelPermission     = "Permission"
	ModelRolePermission = "RolePermission"
	ModelAuditLog       = "AuditLog"
	ModelSale           = "Sale"
	ModelInteraction    = "Interaction"
)

// CRMSchema returns the schema of every table the back-office owns.
func CRMSchema() *Schema {
	return NewSchema(
		Model{Name: ModelUser, Table: "users", GenerateID: true, Timestamps: true, Unique: [][]string{{"email"}}, Tombstone: true},
		Model{Name: ModelEmployee, Table: "employees", GenerateID: true, Timestamps: true, Unique: [][]string{{"code"}}, Tombstone: true},
		Model{Name: ModelCustomer, Table: "customers", GenerateID: true, Timestamps: true, Unique: [][]string{{"code"}}, Tombstone: true},
		Model{Name: ModelProduct, Table: "products", GenerateID: true, Timestamps: true, Unique: [][]string{{"sku"}}, Tombstone: true},
		Model{Name: ModelStock, Table: "stocks", GenerateID: true, Timestamps: true, Unique: [][]string{{"product_id", "location"}}, Tombstone: true},
		Model{Name: ModelProductImage, Table: "product_images", GenerateID: true, Timestamps: true, Tombstone: true},
		Model{Name: ModelRoleDefinition, Table: "role_definitions", GenerateID: true, Timestamps: true, Unique: [][]string{{"name"}}, Tombstone: true},
		Model{Name: ModelPermission, Table: "permissions", GenerateID: true, Timestamps: true, Unique: [][]string{{"category", "name"}}, Tombstone: true},
		Model{Name: ModelRolePermission, Table: "role_permissions", GenerateID: true, Timestamps: true, Unique: [][]string{{"role_id", "permission_id"}}, Tombstone: true},
		Model{Name: ModelAuditLog, Table: "audit_logs"},
		Model{Name: ModelSale, Table: "sales", GenerateID: true, Timestamps: true},
		Model{Name: ModelInteraction, Table: "interactions", GenerateID: true, Timestamps: true},
	)
}

// DeletedAtColumn is the soft-delete marker column shared by governed tables.
const DeletedAtColumn = "deleted_at"
