// Package secret resolves credentials referenced from configuration, such as
// store DSNs and redis passwords, so they never have to be written in the
// config file itself.
//
// Two forms are understood:
//   - ${VAR} expands from the environment and fails when VAR is unset.
//   - secretref:<provider>:<ref> is handed to a Provider; "env" and "file"
//     are built in.
//
// A reference may fill the whole value or appear inline:
//
//	dsn: secretref:env:CACHESTATS_PG_DSN
//	dsn: postgres://stats:secretref:file:/run/secrets/pg_password@db/stats
package secret
