package cdc

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pglogrepl"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgproto3"
	"github.com/yourusername/word-sketch/internal/config"
)

type EventType string

const (
	Insert EventType = "INSERT"
	Update EventType = "UPDATE"
)

// Event carries the text of a row inserted into or updated in the watched
// table.
type Event struct {
	Type  EventType
	Table string
	ID    string
	Text  string
}

// Listener streams row text from Postgres logical replication (pgoutput).
// Deletes are ignored: the sketch only ever grows.
type Listener struct {
	config    config.CDCConfig
	dbConfig  config.DatabaseConfig
	eventChan chan Event
	conn      *pgconn.PgConn
	relations map[uint32]*pglogrepl.RelationMessage
	walPos    pglogrepl.LSN
	cancel    context.CancelFunc
	done      sync.WaitGroup
}

func NewListener(cfg config.CDCConfig, dbCfg config.DatabaseConfig) (*Listener, error) {
	if err := ValidateIdentifier(cfg.Table); err != nil {
		return nil, fmt.Errorf("invalid table name: %w", err)
	}
	if err := ValidateIdentifier(cfg.TextColumn); err != nil {
		return nil, fmt.Errorf("invalid text column: %w", err)
	}
	if err := ValidateIdentifier(cfg.Publication); err != nil {
		return nil, fmt.Errorf("invalid publication: %w", err)
	}
	return &Listener{
		config:    cfg,
		dbConfig:  dbCfg,
		eventChan: make(chan Event, cfg.BufferSize),
		relations: make(map[uint32]*pglogrepl.RelationMessage),
	}, nil
}

func (l *Listener) Start(ctx context.Context) error {
	connConfig, err := pgconn.ParseConfig(fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?replication=database&sslmode=%s",
		l.dbConfig.User, l.dbConfig.Password, l.dbConfig.Host, l.dbConfig.Port, l.dbConfig.Database, l.dbConfig.SSLMode,
	))
	if err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	conn, err := pgconn.ConnectConfig(ctx, connConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	l.conn = conn

	_, err = pglogrepl.CreateReplicationSlot(ctx, l.conn, l.config.SlotName, "pgoutput", pglogrepl.CreateReplicationSlotOptions{Temporary: false})
	if err != nil {
		if !strings.Contains(err.Error(), "already exists") && !strings.Contains(err.Error(), "SQLSTATE 42710") {
			log.Printf("Warning: failed to create replication slot: %v", err)
		}
	}

	log.Printf("Starting logical replication on slot %s for %s.%s", l.config.SlotName, l.config.Table, l.config.TextColumn)
	err = pglogrepl.StartReplication(ctx, l.conn, l.config.SlotName, 0, pglogrepl.StartReplicationOptions{
		PluginArgs: []string{"proto_version '1'", fmt.Sprintf("publication_names '%s'", l.config.Publication)},
	})
	if err != nil {
		l.conn.Close(ctx)
		return fmt.Errorf("failed to start replication: %w", err)
	}

	listenCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.done.Add(1)
	go l.listen(listenCtx)
	return nil
}

func (l *Listener) listen(ctx context.Context) {
	defer l.done.Done()
	defer close(l.eventChan)
	defer l.conn.Close(context.Background())

	standbyMessageTimeout := time.Second * 10
	nextStandbyMessageDeadline := time.Now().Add(standbyMessageTimeout)

	for ctx.Err() == nil {
		if time.Now().After(nextStandbyMessageDeadline) {
			err := pglogrepl.SendStandbyStatusUpdate(ctx, l.conn, pglogrepl.StandbyStatusUpdate{WALWritePosition: l.walPos})
			if err != nil {
				log.Printf("Failed to send standby status update: %v", err)
			}
			nextStandbyMessageDeadline = time.Now().Add(standbyMessageTimeout)
		}

		recvCtx, cancel := context.WithTimeout(ctx, time.Second)
		msg, err := l.conn.ReceiveMessage(recvCtx)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if pgconn.Timeout(err) {
				continue
			}
			log.Printf("ReceiveMessage failed: %v", err)
			return
		}

		copyData, ok := msg.(*pgproto3.CopyData)
		if !ok {
			if msg != nil {
				log.Printf("Received unexpected message: %T", msg)
			}
			continue
		}
		if len(copyData.Data) == 0 {
			continue
		}

		switch copyData.Data[0] {
		case pglogrepl.PrimaryKeepaliveMessageByteID:
			pkm, err := pglogrepl.ParsePrimaryKeepaliveMessage(copyData.Data[1:])
			if err != nil {
				log.Printf("ParsePrimaryKeepaliveMessage failed: %v", err)
				continue
			}
			if pkm.ReplyRequested {
				nextStandbyMessageDeadline = time.Time{}
			}

		case pglogrepl.XLogDataByteID:
			xld, err := pglogrepl.ParseXLogData(copyData.Data[1:])
			if err != nil {
				log.Printf("ParseXLogData failed: %v", err)
				continue
			}

			logicalMsg, err := pglogrepl.Parse(xld.WALData)
			if err != nil {
				log.Printf("Parse logical message failed: %v", err)
				continue
			}
			if event, ok := l.handle(logicalMsg); ok {
				select {
				case l.eventChan <- event:
				case <-ctx.Done():
					return
				}
			}
			l.walPos = xld.WALStart + pglogrepl.LSN(len(xld.WALData))
		}
	}
}

// handle tracks relations and turns inserts and updates on the watched table
// into events.
func (l *Listener) handle(msg pglogrepl.Message) (Event, bool) {
	var (
		relationID uint32
		tuple      *pglogrepl.TupleData
		typ        EventType
	)

	switch msg := msg.(type) {
	case *pglogrepl.RelationMessage:
		l.relations[msg.RelationID] = msg
		return Event{}, false
	case *pglogrepl.InsertMessage:
		relationID, tuple, typ = msg.RelationID, msg.Tuple, Insert
	case *pglogrepl.UpdateMessage:
		relationID, tuple, typ = msg.RelationID, msg.NewTuple, Update
	default:
		return Event{}, false
	}

	rel, ok := l.relations[relationID]
	if !ok {
		log.Printf("Unknown relation ID: %d", relationID)
		return Event{}, false
	}
	table := rel.Namespace + "." + rel.RelationName
	if l.config.Table != table && l.config.Table != rel.RelationName {
		return Event{}, false
	}

	data := extractData(rel, tuple)
	text, ok := data[l.config.TextColumn]
	if !ok || text == "" {
		return Event{}, false
	}
	return Event{Type: typ, Table: table, ID: data["id"], Text: text}, true
}

// extractData keeps text-format columns; nulls and unchanged TOAST values
// are skipped.
func extractData(rel *pglogrepl.RelationMessage, tuple *pglogrepl.TupleData) map[string]string {
	data := make(map[string]string)
	if tuple == nil {
		return data
	}
	for idx, col := range tuple.Columns {
		if idx >= len(rel.Columns) {
			break
		}
		if col.DataType == 't' {
			data[rel.Columns[idx].Name] = string(col.Data)
		}
	}
	return data
}

// Stop ends replication and waits for the listener to exit. Events is
// closed afterwards.
func (l *Listener) Stop() {
	if l.cancel != nil {
		l.cancel()
	}
	l.done.Wait()
}

func (l *Listener) Events() <-chan Event {
	return l.eventChan
}

// ValidateIdentifier allows only alphanumerics, underscores and dots (for
// schema.table).
func ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("identifier is empty")
	}
	for _, r := range name {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '.') {
			return fmt.Errorf("invalid character in identifier: %c", r)
		}
	}
	return nil
}
