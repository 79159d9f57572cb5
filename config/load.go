package config

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/docker/go-units"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "LEAN"

	flagConfig      = "config"
	flagProfile     = "profile"
	flagDataDir     = "datadir"
	flagDBBackend   = "db-backend"
	flagLogLevel    = "loglevel"
	flagMetricsAddr = "metrics-addr"
	flagListenAddrs = "listen-addrs"
	flagBootstrap   = "bootstrap"
	flagKeyFile     = "key-file"
	flagGenesisTime = "genesis-time"
	flagGenesisFile = "genesis-file"
)

// flagKeys maps every flag onto its key in the configuration tree.
var flagKeys = map[string]string{
	flagProfile:     "profile",
	flagDataDir:     "datadir",
	flagDBBackend:   "db-backend",
	flagLogLevel:    "loglevel",
	flagMetricsAddr: "metrics-addr",
	flagListenAddrs: "network.listen-addrs",
	flagBootstrap:   "network.bootstrap",
	flagKeyFile:     "network.key-file",
	flagGenesisTime: "params.genesis-time",
	flagGenesisFile: "genesis-file",
}

// InitFlags registers the node flags. Defaults are those of the devnet2 profile.
func InitFlags(flags *pflag.FlagSet) {
	defaults, err := Default(DefaultProfile)
	if err != nil {
		panic(err)
	}
	flags.String(flagConfig, "", "path to a yaml, toml or json configuration file")
	flags.String(flagProfile, defaults.Profile, "network profile providing the default thresholds (devnet2, devnet3)")
	flags.String(flagDataDir, defaults.DataDir, "directory of the database")
	flags.String(flagDBBackend, defaults.DBBackend, "database backend (badger, pebble)")
	flags.String(flagLogLevel, defaults.LogLevel, "log level (trace, debug, info, warn, error)")
	flags.String(flagMetricsAddr, defaults.MetricsAddr, "address of the prometheus endpoint, disabled if empty")
	flags.StringSlice(flagListenAddrs, defaults.Network.ListenAddrs, "multiaddrs to listen on")
	flags.StringSlice(flagBootstrap, defaults.Network.Bootstrap, "multiaddrs of bootstrap peers including /p2p/<id>")
	flags.String(flagKeyFile, defaults.Network.KeyFile, "file holding the libp2p host key, generated if missing")
	flags.Uint64(flagGenesisTime, defaults.Params.GenesisTime, "unix time of slot zero")
	flags.String(flagGenesisFile, defaults.GenesisFile, "yaml file with the genesis state root and validators")
}

const DefaultProfile = "devnet2"

// Load reads the configuration from, in increasing precedence, the profile
// defaults, the configuration file, LEAN_ prefixed environment variables and
// the flags that were set explicitly.
func Load(flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for flag, key := range flagKeys {
		f := flags.Lookup(flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return Config{}, fmt.Errorf("could not bind flag %s: %w", flag, err)
		}
	}

	if f := flags.Lookup(flagConfig); f != nil && f.Value.String() != "" {
		v.SetConfigFile(f.Value.String())
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("could not read config file: %w", err)
		}
	}

	// the profile decides the defaults of everything else
	profile := v.GetString("profile")
	if profile == "" {
		profile = DefaultProfile
	}
	cfg, err := Default(profile)
	if err != nil {
		return Config{}, err
	}
	if err := setDefaults(v, cfg); err != nil {
		return Config{}, err
	}

	// every key has a default now, decode into a zero value so that slices
	// from the file replace the defaults instead of being merged into them
	var out Config
	err = v.Unmarshal(&out, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		stringToSizeHookFunc(),
	)))
	if err != nil {
		return Config{}, fmt.Errorf("could not decode config: %w", err)
	}
	if out.GenesisFile != "" {
		out.Genesis, err = LoadGenesisFile(out.GenesisFile)
		if err != nil {
			return Config{}, err
		}
	}

	if err := Validate(out); err != nil {
		return Config{}, err
	}
	return out, nil
}

// stringToSizeHookFunc lets int options be given as sizes like "10MiB" or
// "512k". Plain integers are left to the default decoding.
func stringToSizeHookFunc() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if from.Kind() != reflect.String || to.Kind() != reflect.Int {
			return data, nil
		}
		s := strings.TrimSpace(data.(string))
		if _, err := strconv.Atoi(s); err == nil {
			return s, nil
		}
		size, err := units.RAMInBytes(s)
		if err != nil {
			return nil, fmt.Errorf("invalid size %q: %w", s, err)
		}
		return size, nil
	}
}

// setDefaults registers every field of cfg as a viper default, so that
// environment variables are picked up for keys absent from the file.
func setDefaults(v *viper.Viper, cfg Config) error {
	tree := make(map[string]interface{})
	if err := mapstructure.Decode(cfg, &tree); err != nil {
		return fmt.Errorf("could not flatten defaults: %w", err)
	}
	for key, value := range flatten("", tree) {
		v.SetDefault(key, value)
	}
	return nil
}

func flatten(prefix string, tree map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for key, value := range tree {
		if prefix != "" {
			key = prefix + "." + key
		}
		if nested, ok := value.(map[string]interface{}); ok {
			for k, v := range flatten(key, nested) {
				out[k] = v
			}
			continue
		}
		out[key] = value
	}
	return out
}

// Validate checks the struct tags of the configuration.
func Validate(cfg Config) error {
	err := validator.New().Struct(cfg)
	if err == nil {
		return nil
	}
	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		return fmt.Errorf("could not validate config: %w", err)
	}
	fields := make([]string, 0, len(invalid))
	for _, fe := range invalid {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(fields, ", "))
}
