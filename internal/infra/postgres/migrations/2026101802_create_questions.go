package migrations

import _ "embed"

//go:embed 0002_create_questions.sql
var createQuestionsSQL string

func init() {
	Migrations.MustRegister(
		execSQL(createQuestionsSQL),
		execSQL(`DROP TABLE IF EXISTS questions`),
	)
}
