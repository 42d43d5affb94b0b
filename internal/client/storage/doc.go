// Package storage is the durable key/value area of the dashboard client.
//
// Values live in a single SQLite table partitioned by namespace, so the
// session and the preferences never see each other's keys. The schema is
// managed with embedded goose migrations (see Open and RunMigrations).
//
// Contract shared by every implementation:
//   - Get returns (nil, nil) when the key does not exist.
//   - Set is an upsert.
//   - SetMany and Delete with several keys are applied in one transaction.
//   - Delete of a missing key is not an error.
package storage
