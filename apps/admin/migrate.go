package main

func (cli *commandLine) runMigration(command string, version int64) error {
	if cli.migrate == nil {
		return errNoMigrations
	}
	return cli.migrate(command, version)
}
