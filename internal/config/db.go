package config

// Supported values for DB.GormEngine.
const (
	EngineMySQL    = "mysql"
	EnginePostgres = "postgres"
	EngineSQLite   = "sqlite"
)

// DB holds the database configuration settings.
type DB struct {
	Extras     string
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	GormEngine string
	// Path is the database file used by the sqlite engine.
	Path string

	MaxOpenConns    int // 0 keeps the default of 25
	MaxIdleConns    int // 0 keeps the default of 10
	ConnMaxLifetime int // seconds, 0 keeps the default of 300
}
