package db

// Repositories provides access to all database repositories
type Repositories struct {
	Scripts  *ScriptRepository
	Settings *SettingsRepository
}

// NewRepositories creates a new repository collection
func NewRepositories(db *DB) *Repositories {
	return &Repositories{
		Scripts:  NewScriptRepository(db),
		Settings: NewSettingsRepository(db),
	}
}
