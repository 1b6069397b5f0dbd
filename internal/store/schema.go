package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS snapshots (
    hash                 TEXT PRIMARY KEY,
    prediction_id        TEXT,
    recorded_at          TEXT NOT NULL,
    income               REAL,
    total_expenses       REAL,
    savings_potential    REAL,
    target_savings       REAL,
    recommended_savings  REAL,
    confidence           REAL,
    risk_score           REAL
);

CREATE TABLE IF NOT EXISTS chat_messages (
    id                   INTEGER PRIMARY KEY AUTOINCREMENT,
    conversation_id      TEXT NOT NULL,
    role                 TEXT NOT NULL,
    content              TEXT NOT NULL,
    sent_at              TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_recorded ON snapshots(recorded_at);
CREATE INDEX IF NOT EXISTS idx_chat_conversation ON chat_messages(conversation_id, id);
`
