// Package catalog implements the plain CRUD operations shared by customers,
// coverage plans and rate charts.
//
// There is no derived computation here. The service adds three rules on top
// of a Store: the path id must match the body id on update, a write conflict
// on a row that no longer exists is reported as not found, and deletes fetch
// before removing.
//
// Store implementations live in repository/postgres/ and repository/memory/.
package catalog
