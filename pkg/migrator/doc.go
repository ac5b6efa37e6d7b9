// Package migrator loads versioned migration scripts from a directory.
//
// A migrations directory is flat. Every file named <version>_<name>.sql is a
// migration, where version is a positive integer that determines
// application order:
//
//	migrations/
//	├── 1_initial_schema.sql
//	├── 2_add_email.sql
//	└── 0003_events.sql
//
// Each script carries the MD5 of its exact bytes, which is what the history
// table records so that edits to applied scripts can be detected.
//
// Example:
//
//	scripts, err := migrator.LoadDir(os.DirFS("./migrations"), migrator.LoadOptions{
//		MultiStatement: true,
//	})
//	if err != nil {
//		return err
//	}
//
//	for _, s := range scripts {
//		fmt.Printf("%d %s (%d statements)\n", s.Version, s.Name, len(s.Statements))
//	}
package migrator
