package postgres

const schema = `
CREATE TABLE IF NOT EXISTS users (
  email TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  last_login_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS sections (
  id INTEGER PRIMARY KEY,
  slug TEXT NOT NULL,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  difficulty TEXT NOT NULL DEFAULT '',
  question_count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS questions (
  section_id INTEGER NOT NULL REFERENCES sections(id) ON DELETE CASCADE,
  id INTEGER NOT NULL,
  text TEXT NOT NULL,
  type TEXT NOT NULL,
  options TEXT[] NOT NULL DEFAULT '{}',
  correct_answer TEXT NOT NULL,
  explanation TEXT NOT NULL DEFAULT '',
  time_limit_seconds INTEGER NOT NULL DEFAULT 0,
  points INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (section_id, id)
);

CREATE TABLE IF NOT EXISTS user_question_responses (
  id TEXT PRIMARY KEY,
  user_email TEXT NOT NULL,
  section_id INTEGER NOT NULL,
  question_id INTEGER NOT NULL,
  answer TEXT NOT NULL,
  is_correct BOOLEAN NOT NULL,
  points_earned INTEGER NOT NULL DEFAULT 0,
  response_time_ms BIGINT NOT NULL DEFAULT 0,
  responded_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_uqr_user_section ON user_question_responses(user_email, section_id);

CREATE TABLE IF NOT EXISTS user_section_progress (
  user_email TEXT NOT NULL,
  section_id INTEGER NOT NULL,
  questions_answered INTEGER NOT NULL,
  questions_correct INTEGER NOT NULL,
  score INTEGER NOT NULL,
  accuracy INTEGER NOT NULL,
  time_spent_seconds INTEGER NOT NULL,
  completed_at TIMESTAMPTZ NOT NULL,
  UNIQUE (user_email, section_id)
);

CREATE TABLE IF NOT EXISTS certificates (
  user_email TEXT NOT NULL,
  kind TEXT NOT NULL,
  section_id INTEGER NOT NULL DEFAULT 0,
  certificate_number TEXT,
  accuracy INTEGER NOT NULL,
  eligible BOOLEAN NOT NULL,
  awarded_at TIMESTAMPTZ,
  download_count INTEGER NOT NULL DEFAULT 0,
  last_downloaded_at TIMESTAMPTZ,
  updated_at TIMESTAMPTZ NOT NULL,
  UNIQUE (user_email, kind, section_id)
);

CREATE TABLE IF NOT EXISTS reviews (
  id BIGINT PRIMARY KEY,
  user_email TEXT NOT NULL,
  rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
  comment TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL
);
`
