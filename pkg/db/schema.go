// schema.go

package db

// 统一的数据库表结构定义

// CreateAllTablesSQL 创建所有表的SQL语句
const CreateAllTablesSQL = `
-- 场次表，整场状态以JSON保存，key 长度与 match.MaxSessionKeyLength 一致
CREATE TABLE IF NOT EXISTS sessions (
    key VARCHAR(100) PRIMARY KEY,
    name VARCHAR(100) NOT NULL DEFAULT '',
    payload JSONB NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
);

-- 场次结束时的排名归档
CREATE TABLE IF NOT EXISTS session_results (
    id SERIAL PRIMARY KEY,
    session_key VARCHAR(100) NOT NULL,
    finished_at TIMESTAMP WITH TIME ZONE NOT NULL,
    rank INT NOT NULL,
    player_id VARCHAR(50) NOT NULL,
    name VARCHAR(50) NOT NULL,
    wins INT NOT NULL DEFAULT 0,
    losses INT NOT NULL DEFAULT 0,
    win_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
    total_matches INT NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at);
CREATE INDEX IF NOT EXISTS idx_session_results_key ON session_results(session_key, finished_at);
`

// DropAllTablesSQL 删除所有表的SQL语句
const DropAllTablesSQL = `
DROP TABLE IF EXISTS session_results;
DROP TABLE IF EXISTS sessions;
`

// InitAllTables 初始化所有数据库表
func InitAllTables() error {
	_, err := DB.Exec(CreateAllTablesSQL)
	if err != nil {
		return err
	}
	return nil
}

// DropAllTables 删除所有数据库表
func DropAllTables() error {
	_, err := DB.Exec(DropAllTablesSQL)
	return err
}
