package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	StudentVueConfig struct {
		Username string        `mapstructure:"username" validate:"required"`
		Password string        `mapstructure:"password"`
		Domain   string        `mapstructure:"domain" validate:"required"`
		Parent   bool          `mapstructure:"parent"`
		Timeout  time.Duration `mapstructure:"timeout" validate:"min=0"`
		CacheTTL time.Duration `mapstructure:"cacheTTL" validate:"min=0"`
	}

	// StudentsConfig selects which students are processed: all of them when both lists are empty.
	StudentsConfig struct {
		FirstNames []string `mapstructure:"firstNames"`
		AccessIDs  []string `mapstructure:"accessIDs"`
	}

	SelectionConfig struct {
		TermIndex         int    `mapstructure:"termIndex" validate:"min=-1"` // -1: upstream current
		ReportPeriodIndex int    `mapstructure:"reportPeriodIndex" validate:"min=-1"`
		ReportPeriodName  string `mapstructure:"reportPeriodName"`
		MarkName          string `mapstructure:"markName" validate:"omitempty,oneof=term report-period"`
	}

	MissingConfig struct {
		ClassName          string        `mapstructure:"className"`
		Period             string        `mapstructure:"period"`
		DateCutoff         string        `mapstructure:"dateCutoff"`
		CutoffByClass      []ClassCutoff `mapstructure:"cutoffByClass" validate:"dive"`
		CutoffMatch        string        `mapstructure:"cutoffMatch" validate:"oneof=class-in-key key-in-class exact"`
		GradeTermFilter    bool          `mapstructure:"gradeTermFilter"`
		ReportPeriodFilter bool          `mapstructure:"reportPeriodFilter"`
	}

	// ClassCutoff is a per-class date cutoff. A list rather than a map: viper lowercases
	// map keys, and the list order decides which entry matches first.
	ClassCutoff struct {
		Class  string `mapstructure:"class" validate:"required"`
		Cutoff string `mapstructure:"cutoff" validate:"required"`
	}

	// ChildAddress overrides the address a child's own copy is sent to.
	ChildAddress struct {
		AccessID string `mapstructure:"accessID" validate:"required"`
		Email    string `mapstructure:"email" validate:"required"`
	}

	NotifyConfig struct {
		Enabled          bool `mapstructure:"enabled"`
		WeekdaysOnly     bool `mapstructure:"weekdaysOnly"`
		ExcludeHolidays  bool `mapstructure:"excludeHolidays"`
		ReportPeriodOnly bool `mapstructure:"reportPeriodOnly"`
		SchoolYearOnly   bool `mapstructure:"schoolYearOnly"`
	}

	EmailConfig struct {
		Enabled      bool           `mapstructure:"enabled"`
		Provider     string         `mapstructure:"provider" validate:"oneof=smtp sendgrid console"`
		From         string         `mapstructure:"from"`
		To           []string       `mapstructure:"to"`
		SMTPHost     string         `mapstructure:"smtpHost"`
		SMTPPort     int            `mapstructure:"smtpPort" validate:"min=0,max=65535"`
		SMTPUser     string         `mapstructure:"smtpUser"`
		SMTPPassword string         `mapstructure:"smtpPassword"`
		SSL          bool           `mapstructure:"ssl"`
		TLS          bool           `mapstructure:"tls"`
		SendgridKey  string         `mapstructure:"sendgridKey"`
		Child        bool           `mapstructure:"child"`
		ChildTo      []ChildAddress `mapstructure:"childTo" validate:"dive"`
	}

	PushbulletConfig struct {
		Enabled  bool   `mapstructure:"enabled"`
		APIKey   string `mapstructure:"apiKey"`
		DeviceID string `mapstructure:"deviceID"`
	}

	JoinConfig struct {
		Enabled  bool   `mapstructure:"enabled"`
		APIKey   string `mapstructure:"apiKey"`
		DeviceID string `mapstructure:"deviceID"`
	}

	PushoverConfig struct {
		Enabled  bool   `mapstructure:"enabled"`
		APIToken string `mapstructure:"apiToken"`
		UserKeys string `mapstructure:"userKeys"`
		Priority int    `mapstructure:"priority" validate:"min=-2,max=2"`
	}

	ServerConfig struct {
		Host            string        `mapstructure:"host"`
		ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
	}

	Config struct {
		Env          string `mapstructure:"env"`
		Debug        bool   `mapstructure:"debug"`
		AppName      string `mapstructure:"appName"`
		Build        string `mapstructure:"build"`
		LogFile      string `mapstructure:"logFile"`
		LogLevel     string `mapstructure:"logLevel" validate:"oneof=DEBUG INFO WARN ERROR"`
		RollbarToken string `mapstructure:"rollbarToken"`

		StudentVue StudentVueConfig `mapstructure:"studentvue"`
		Students   StudentsConfig   `mapstructure:"students"`
		Selection  SelectionConfig  `mapstructure:"selection"`
		Missing    MissingConfig    `mapstructure:"missing"`
		Notify     NotifyConfig     `mapstructure:"notify"`
		Email      EmailConfig      `mapstructure:"email"`
		Pushbullet PushbulletConfig `mapstructure:"pushbullet"`
		Join       JoinConfig       `mapstructure:"join"`
		Pushover   PushoverConfig   `mapstructure:"pushover"`
		Server     ServerConfig     `mapstructure:"server"`
	}
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("appName", "Gradewatch")
	v.SetDefault("build", "develop")
	v.SetDefault("logFile", "")
	v.SetDefault("logLevel", "INFO")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("studentvue.username", "")
	v.SetDefault("studentvue.password", "")
	v.SetDefault("studentvue.domain", "")
	v.SetDefault("studentvue.parent", true)
	v.SetDefault("studentvue.timeout", 30*time.Second)
	v.SetDefault("studentvue.cacheTTL", 10*time.Minute)

	v.SetDefault("students.firstNames", []string{})
	v.SetDefault("students.accessIDs", []string{})

	v.SetDefault("selection.termIndex", -1)
	v.SetDefault("selection.reportPeriodIndex", -1)
	v.SetDefault("selection.reportPeriodName", "")
	v.SetDefault("selection.markName", "term")

	v.SetDefault("missing.className", "")
	v.SetDefault("missing.period", "")
	v.SetDefault("missing.dateCutoff", "")
	v.SetDefault("missing.cutoffMatch", "class-in-key")
	v.SetDefault("missing.gradeTermFilter", false)
	v.SetDefault("missing.reportPeriodFilter", false)

	v.SetDefault("notify.enabled", false)
	v.SetDefault("notify.weekdaysOnly", true)
	v.SetDefault("notify.excludeHolidays", true)
	v.SetDefault("notify.reportPeriodOnly", false)
	v.SetDefault("notify.schoolYearOnly", false)

	v.SetDefault("email.enabled", false)
	v.SetDefault("email.provider", "smtp")
	v.SetDefault("email.from", "noreply@localhost")
	v.SetDefault("email.to", []string{})
	v.SetDefault("email.smtpHost", "localhost")
	v.SetDefault("email.smtpPort", 587)
	v.SetDefault("email.smtpUser", "")
	v.SetDefault("email.smtpPassword", "")
	v.SetDefault("email.ssl", false)
	v.SetDefault("email.tls", true)
	v.SetDefault("email.sendgridKey", "")
	v.SetDefault("email.child", false)

	v.SetDefault("pushbullet.enabled", false)
	v.SetDefault("pushbullet.apiKey", "")
	v.SetDefault("pushbullet.deviceID", "")
	v.SetDefault("join.enabled", false)
	v.SetDefault("join.apiKey", "")
	v.SetDefault("join.deviceID", "")
	v.SetDefault("pushover.enabled", false)
	v.SetDefault("pushover.apiToken", "")
	v.SetDefault("pushover.userKeys", "")
	v.SetDefault("pushover.priority", 0)

	v.SetDefault("server.host", "localhost:8000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
}

// NewConfig loads the configuration from defaults, an optional settings file,
// the `config/.env.<env>` dotenv file and finally the environment.
//   e.g. DEV_STUDENTVUE_USERNAME overrides studentvue.username when ENV is DEV
func NewConfig(settingsFile ...string) *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, PROD
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		v.SetDefault("debug", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	file := os.Getenv("GRADEWATCH_CONFIG")
	if len(settingsFile) > 0 && settingsFile[0] != "" {
		file = settingsFile[0]
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			log.Fatalf("config.ReadInConfig(%s): %v", file, err)
		}
	}

	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		log.Fatalf("config.Unmarshal: %v", err)
	}
	conf.Env = env
	conf.LogLevel = strings.ToUpper(conf.LogLevel)
	return &conf
}

// TestMode reports whether the app runs under `ENV=TEST`.
func (c *Config) TestMode() bool { return c.Env == "TEST" }

// Recipients returns the email recipients for a student: the configured list,
// plus the student's own address(es) when child copies are enabled.
func (c *Config) Recipients(accessID string) []string {
	to := append([]string{}, c.Email.To...)
	if c.Email.Child {
		for _, ca := range c.Email.ChildTo {
			if ca.AccessID == accessID {
				to = append(to, ca.Email)
				break
			}
		}
	}
	return to
}
