package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
    session_id           TEXT PRIMARY KEY,
    file_path            TEXT NOT NULL,
    start_time           TEXT,
    end_time             TEXT,
    turns                INTEGER,
    input_tokens         INTEGER,
    output_tokens        INTEGER,
    estimated_cost       REAL,
    slow_tool_warnings   INTEGER,
    cost_warnings        INTEGER,
    injections           INTEGER,
    final_phase          TEXT,
    phase_confidence     REAL,
    file_mtime_ns        INTEGER NOT NULL,
    file_size            INTEGER NOT NULL,
    parsed_at            TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS session_models (
    session_id           TEXT NOT NULL REFERENCES sessions(session_id) ON DELETE CASCADE,
    model                TEXT NOT NULL,
    turns                INTEGER,
    input_tokens         INTEGER,
    output_tokens        INTEGER,
    estimated_cost       REAL,
    PRIMARY KEY (session_id, model)
);

CREATE TABLE IF NOT EXISTS session_tools (
    session_id           TEXT NOT NULL REFERENCES sessions(session_id) ON DELETE CASCADE,
    tool                 TEXT NOT NULL,
    calls                INTEGER,
    total_secs           REAL,
    PRIMARY KEY (session_id, tool)
);

CREATE TABLE IF NOT EXISTS session_phases (
    session_id           TEXT NOT NULL REFERENCES sessions(session_id) ON DELETE CASCADE,
    seq                  INTEGER NOT NULL,
    phase                TEXT NOT NULL,
    duration_secs        REAL,
    started_at           TEXT,
    PRIMARY KEY (session_id, seq)
);

CREATE TABLE IF NOT EXISTS file_tracker (
    file_path            TEXT PRIMARY KEY,
    mtime_ns             INTEGER NOT NULL,
    size_bytes           INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_start ON sessions(start_time);
CREATE INDEX IF NOT EXISTS idx_sessions_phase ON sessions(final_phase);
`
