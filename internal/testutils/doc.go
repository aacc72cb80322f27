// Package testutils provides helpers shared by the test suites.
//
//	db := testutils.NewSQLiteDB(t)                   // migrated in-memory database
//	card := testutils.MustInsertCard(t, db, userID)  // persisted card due now
//	header := testutils.AuthHeader(t, userID)        // "Bearer <token>"
//
// Nothing here is used by production code.
package testutils
