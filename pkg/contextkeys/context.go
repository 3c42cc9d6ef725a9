package contextkeys

// Кастомный тип, чтобы избежать коллизий ключей в context
type contextKey string

// DBContextKey - ключ, по которому хранится *gorm.DB в context
const DBContextKey = contextKey("db")
