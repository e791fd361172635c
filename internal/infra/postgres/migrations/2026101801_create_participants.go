package migrations

import _ "embed"

//go:embed 0001_create_participants.sql
var createParticipantsSQL string

func init() {
	Migrations.MustRegister(
		execSQL(createParticipantsSQL),
		execSQL(`DROP TABLE IF EXISTS participants`),
	)
}
