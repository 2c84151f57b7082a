package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"insightdesk/internal/database"
)

// Queries that rewrite or destroy data are refused outright; the analysis
// database is read-mostly and the agent has no business dropping tables.
var destructivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^drop\s+`),
	regexp.MustCompile(`(?i)^truncate\s+`),
	regexp.MustCompile(`(?i)^delete\s+from\s+`),
	regexp.MustCompile(`(?i)^alter\s+table.*drop\s+`),
}

const queryTimeout = 30 * time.Second

// NewQueryDatabaseTool creates the query_database tool over the analysis
// database handle.
func NewQueryDatabaseTool(db *database.DB) *Tool {
	return &Tool{
		Name:        "query_database",
		DisplayName: "Query Database",
		Description: "Execute SQL queries against the analysis database and return rows. Destructive statements (DROP, TRUNCATE, DELETE, ALTER ... DROP) are rejected. Prefer aggregate queries or a LIMIT clause over full-table scans.",
		Icon:        "Database",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "SQL query to execute",
				},
			},
			"required": []string{"query"},
		},
		Execute:  executeQueryDatabase(db),
		Category: "data_sources",
		Keywords: []string{"sql", "query", "database", "select", "rows", "table"},
	}
}

func executeQueryDatabase(db *database.DB) ExecuteFunc {
	return func(args map[string]interface{}) (string, error) {
		query, ok := args["query"].(string)
		if !ok || query == "" {
			return "", fmt.Errorf("query parameter is required and must be a string")
		}

		trimmed := strings.TrimSpace(query)
		for _, pattern := range destructivePatterns {
			if pattern.MatchString(trimmed) {
				log.Printf("🚫 [DB-TOOL] Blocked destructive query: %s", trimmed)
				return "", fmt.Errorf("destructive operations are not allowed")
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
		defer cancel()

		rows, err := db.QueryContext(ctx, trimmed)
		if err != nil {
			return "", fmt.Errorf("query execution failed: %w", err)
		}
		defer rows.Close()

		columns, err := rows.Columns()
		if err != nil {
			return "", fmt.Errorf("failed to read columns: %w", err)
		}

		var results []map[string]interface{}
		for rows.Next() {
			values := make([]interface{}, len(columns))
			pointers := make([]interface{}, len(columns))
			for i := range values {
				pointers[i] = &values[i]
			}
			if err := rows.Scan(pointers...); err != nil {
				return "", fmt.Errorf("failed to scan row: %w", err)
			}

			row := make(map[string]interface{}, len(columns))
			for i, col := range columns {
				if b, ok := values[i].([]byte); ok {
					row[col] = string(b)
				} else {
					row[col] = values[i]
				}
			}
			results = append(results, row)
		}
		if err := rows.Err(); err != nil {
			return "", fmt.Errorf("query execution failed: %w", err)
		}

		encoded, err := json.Marshal(map[string]interface{}{
			"rows":      results,
			"row_count": len(results),
			"columns":   columns,
		})
		if err != nil {
			return "", fmt.Errorf("failed to encode result: %w", err)
		}
		return string(encoded), nil
	}
}

// NewSchemaInfoTool creates the get_schema_info tool
func NewSchemaInfoTool(db *database.DB) *Tool {
	return &Tool{
		Name:        "get_schema_info",
		DisplayName: "Get Schema Info",
		Description: "Get information about the analysis database schema including tables and columns. Optionally restrict to one table. Use this to validate assumptions about the data structure before writing queries.",
		Icon:        "Table",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"table": map[string]interface{}{
					"type":        "string",
					"description": "Optional specific table name to get schema for",
				},
			},
			"required": []string{},
		},
		Execute:  executeSchemaInfo(db),
		Category: "data_sources",
		Keywords: []string{"schema", "tables", "columns", "structure", "metadata", "database"},
	}
}

func executeSchemaInfo(db *database.DB) ExecuteFunc {
	return func(args map[string]interface{}) (string, error) {
		table, _ := args["table"].(string)

		ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
		defer cancel()

		var schema []map[string]interface{}
		var err error
		if db.Dialect() == database.DialectPostgres {
			schema, err = postgresSchema(ctx, db, table)
		} else {
			schema, err = sqliteSchema(ctx, db, table)
		}
		if err != nil {
			return "", fmt.Errorf("schema query failed: %w", err)
		}

		message := "Overview of all tables in the database"
		if table != "" {
			message = fmt.Sprintf("Schema information for table: %s", table)
		}

		encoded, err := json.Marshal(map[string]interface{}{
			"schema":  schema,
			"message": message,
		})
		if err != nil {
			return "", fmt.Errorf("failed to encode result: %w", err)
		}
		return string(encoded), nil
	}
}

func postgresSchema(ctx context.Context, db *database.DB, table string) ([]map[string]interface{}, error) {
	query := `
		SELECT table_name, column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = 'public'
		ORDER BY table_name, ordinal_position`
	args := []any{}
	if table != "" {
		query = `
			SELECT table_name, column_name, data_type, is_nullable
			FROM information_schema.columns
			WHERE table_schema = 'public' AND table_name = $1
			ORDER BY ordinal_position`
		args = append(args, table)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schema []map[string]interface{}
	for rows.Next() {
		var tableName, columnName, dataType, nullable string
		if err := rows.Scan(&tableName, &columnName, &dataType, &nullable); err != nil {
			return nil, err
		}
		schema = append(schema, map[string]interface{}{
			"table":       tableName,
			"column":      columnName,
			"data_type":   dataType,
			"is_nullable": nullable,
		})
	}
	return schema, rows.Err()
}

func sqliteSchema(ctx context.Context, db *database.DB, table string) ([]map[string]interface{}, error) {
	tables := []string{table}
	if table == "" {
		rows, err := db.QueryContext(ctx,
			"SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		tables = tables[:0]
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return nil, err
			}
			tables = append(tables, name)
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}

	var schema []map[string]interface{}
	for _, name := range tables {
		rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", name))
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var cid int
			var columnName, dataType string
			var notNull, pk int
			var dflt any
			if err := rows.Scan(&cid, &columnName, &dataType, &notNull, &dflt, &pk); err != nil {
				rows.Close()
				return nil, err
			}
			nullable := "YES"
			if notNull == 1 {
				nullable = "NO"
			}
			schema = append(schema, map[string]interface{}{
				"table":       name,
				"column":      columnName,
				"data_type":   dataType,
				"is_nullable": nullable,
			})
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return schema, nil
}
