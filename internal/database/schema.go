package database

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// schema contains the table definitions required by the portal. Each
// statement is executed with IF NOT EXISTS so EnsureSchema is safe to
// run on every startup against an already-provisioned database.
const schema = `
CREATE TABLE IF NOT EXISTS students (
  id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
  iat_roll_no VARCHAR(32) NOT NULL,
  student_name VARCHAR(255) NOT NULL,
  fees_paid TINYINT(1) NOT NULL DEFAULT 0,
  hostel_mess_status TINYINT(1) NOT NULL DEFAULT 0,
  insurance_status TINYINT(1) NOT NULL DEFAULT 0,
  lhc_docs_status TINYINT(1) NOT NULL DEFAULT 0,
  final_approval_status TINYINT(1) NOT NULL DEFAULT 0,
  token_assigned TINYINT(1) NOT NULL DEFAULT 0,
  flagged TINYINT(1) NOT NULL DEFAULT 0,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (id),
  UNIQUE KEY uq_students_roll (iat_roll_no)
);

CREATE TABLE IF NOT EXISTS approval_tokens (
  id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
  token_number INT NOT NULL,
  student_roll_no VARCHAR(32) NOT NULL,
  volunteer_id BIGINT UNSIGNED NULL,
  is_processing TINYINT(1) NOT NULL DEFAULT 0,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (id),
  UNIQUE KEY uq_tokens_number (token_number),
  UNIQUE KEY uq_tokens_roll (student_roll_no)
);

CREATE TABLE IF NOT EXISTS volunteers (
  id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
  username VARCHAR(64) NOT NULL,
  password_hash VARCHAR(255) NOT NULL,
  role ENUM('VOLUNTEER','ADMIN') NOT NULL DEFAULT 'VOLUNTEER',
  can_verify_lhc TINYINT(1) NOT NULL DEFAULT 0,
  is_available TINYINT(1) NOT NULL DEFAULT 0,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (id),
  UNIQUE KEY uq_volunteers_username (username)
);

CREATE TABLE IF NOT EXISTS settings (
  id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
  skip_offset INT NOT NULL DEFAULT 3,
  PRIMARY KEY (id)
);

CREATE TABLE IF NOT EXISTS refresh_tokens (
  id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
  account_id BIGINT UNSIGNED NOT NULL,
  account_role VARCHAR(16) NOT NULL,
  token_hash CHAR(64) NOT NULL,
  expires_at DATETIME NOT NULL,
  revoked_at DATETIME NULL,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (id),
  KEY idx_refresh_hash (token_hash)
);

CREATE TABLE IF NOT EXISTS faqs (
  id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
  question TEXT NOT NULL,
  answer TEXT NOT NULL,
  PRIMARY KEY (id)
);

CREATE TABLE IF NOT EXISTS announcements (
  id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
  message TEXT NOT NULL,
  PRIMARY KEY (id)
);

CREATE TABLE IF NOT EXISTS locations (
  id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
  name VARCHAR(255) NOT NULL,
  map_link TEXT NOT NULL,
  PRIMARY KEY (id)
);
`

// EnsureSchema creates any missing tables. Statements run one at a
// time because the MySQL driver does not allow multi-statement exec
// by default.
func EnsureSchema(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
