// Package user provides the user store backing the verification workflow.
//
// A User owns the verification fields (one outstanding code, its expiry, a
// failed-attempt counter) and an embedded list of trusted devices keyed by
// device ID. The repository interface exposes exactly the mutations the
// workflow performs; three implementations are provided:
//
//   - InMemUserRepository: map-backed, for tests and cmd/inmem
//   - FileUserRepository: JSON file under a data directory
//   - PostgresUserRepository: pgx-backed, trusted devices in a JSONB column
//
// # Basic Usage
//
//	import "github.com/nexrate/nexrate-verify/pkg/user"
//
//	repo, err := user.NewUserRepository("postgres", user.RepositoryConfig{DB: pool})
//	u, err := repo.FindUserByEmail(ctx, "jane@example.com")
//
// Updates to verification fields are unconditional overwrites: two
// concurrent code issues both succeed and the second write wins.
package user
