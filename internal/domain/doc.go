// Package domain defines the core business types for the policy back office.
//
// Types in this package are plain value objects: customers, coverage plans,
// rate charts and issued contracts. They carry no database handles and no
// HTTP concerns. They are the shared language between handlers, services,
// and repositories.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - No *sql.DB, no http.Request, no context.Context in struct fields
//   - JSON/XML/validate tags are allowed (they're metadata, not behavior)
//   - Small pure predicates are allowed (eligibility, age, gender parsing)
package domain
