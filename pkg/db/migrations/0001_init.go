package migrations

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func init() {
	goose.AddMigrationContext(upInit, downInit)
}

// The structs below are snapshots of the models as of this migration; the
// live definitions in internal/models may evolve independently.

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email     string    `gorm:"type:text;uniqueIndex;not null"`
	Name      string    `gorm:"type:text;not null"`
	APIToken  string    `gorm:"type:text;uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;not null;default:now();autoUpdateTime"`
}

type Configuration struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_configurations_connection,priority:1"`
	Name        string     `gorm:"type:text;not null"`
	Environment string     `gorm:"type:text;not null;uniqueIndex:idx_configurations_connection,priority:2"`
	VeevaURL    string     `gorm:"type:text;not null;uniqueIndex:idx_configurations_connection,priority:3"`
	Username    string     `gorm:"type:text;not null;uniqueIndex:idx_configurations_connection,priority:4"`
	IsActive    bool       `gorm:"type:boolean;not null;default:false"`
	LastSyncAt  *time.Time `gorm:"type:timestamptz"`
	CreatedAt   time.Time  `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"type:timestamptz;not null;default:now();autoUpdateTime"`

	User User `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

type Session struct {
	ID              uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ConfigurationID uuid.UUID     `gorm:"type:uuid;not null;index"`
	Token           string        `gorm:"type:text;not null"`
	ExpiresAt       time.Time     `gorm:"type:timestamptz;not null"`
	IsActive        bool          `gorm:"type:boolean;not null;default:true"`
	CreatedAt       time.Time     `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	Configuration   Configuration `gorm:"foreignKey:ConfigurationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

type Study struct {
	ID              uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ConfigurationID uuid.UUID         `gorm:"type:uuid;not null;index;uniqueIndex:idx_studies_external,priority:1"`
	ExternalID      string            `gorm:"type:text;not null;uniqueIndex:idx_studies_external,priority:2"`
	Name            string            `gorm:"type:text;not null"`
	Phase           string            `gorm:"type:text"`
	Status          string            `gorm:"type:text"`
	Raw             datatypes.JSONMap `gorm:"type:jsonb"`
	RefreshedAt     time.Time         `gorm:"type:timestamptz;not null"`
	CreatedAt       time.Time         `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"type:timestamptz;not null;default:now();autoUpdateTime"`
	Configuration   Configuration     `gorm:"foreignKey:ConfigurationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

type Milestone struct {
	ID                  uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ConfigurationID     uuid.UUID         `gorm:"type:uuid;not null;index;uniqueIndex:idx_milestones_external,priority:1"`
	StudyExternalID     string            `gorm:"type:text;not null;uniqueIndex:idx_milestones_external,priority:2"`
	SiteID              string            `gorm:"type:text;not null;default:'';uniqueIndex:idx_milestones_external,priority:3"`
	Kind                string            `gorm:"type:text;not null"`
	Title               string            `gorm:"type:text;not null;uniqueIndex:idx_milestones_external,priority:4"`
	Status              string            `gorm:"type:text"`
	OriginalPlannedDate *time.Time        `gorm:"type:timestamptz"`
	CurrentPlannedDate  *time.Time        `gorm:"type:timestamptz"`
	BaselineDate        *time.Time        `gorm:"type:timestamptz"`
	ActualDate          *time.Time        `gorm:"type:timestamptz"`
	Progress            int               `gorm:"type:integer;not null;default:0"`
	Assignee            string            `gorm:"type:text"`
	Priority            string            `gorm:"type:text;not null;default:'medium'"`
	Raw                 datatypes.JSONMap `gorm:"type:jsonb"`
	RefreshedAt         time.Time         `gorm:"type:timestamptz;not null"`
	CreatedAt           time.Time         `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	UpdatedAt           time.Time         `gorm:"type:timestamptz;not null;default:now();autoUpdateTime"`
	Configuration       Configuration     `gorm:"foreignKey:ConfigurationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func upInit(ctx context.Context, tx *sql.Tx) error {
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: tx, PreferSimpleProtocol: true}), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: false},
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}

	if err := gormDB.WithContext(ctx).AutoMigrate(
		&User{},
		&Configuration{},
		&Session{},
		&Study{},
		&Milestone{},
	); err != nil {
		return err
	}

	m := gormDB.WithContext(ctx).Migrator()
	if err := m.CreateConstraint(&Configuration{}, "User"); err != nil {
		return err
	}
	if err := m.CreateConstraint(&Session{}, "Configuration"); err != nil {
		return err
	}
	if err := m.CreateConstraint(&Study{}, "Configuration"); err != nil {
		return err
	}
	if err := m.CreateConstraint(&Milestone{}, "Configuration"); err != nil {
		return err
	}

	return nil
}

func downInit(ctx context.Context, tx *sql.Tx) error {
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: tx, PreferSimpleProtocol: true}), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: false},
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}

	return gormDB.WithContext(ctx).Migrator().DropTable(
		&Milestone{},
		&Study{},
		&Session{},
		&Configuration{},
		&User{},
	)
}
