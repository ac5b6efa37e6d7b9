package docker

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"text/template"

	"github.com/pkg/errors"
	"github.com/pseudomuto/chmigrate/pkg/consts"
)

// clusterNamePattern limits cluster names to what is valid as an XML element.
var clusterNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var clusterConfig = template.Must(template.New("cluster").Parse(`<clickhouse>
    <logger>
        <level>warning</level>
        <console>true</console>
    </logger>
    <keeper_server>
        <tcp_port>9181</tcp_port>
        <server_id>1</server_id>
        <log_storage_path>/var/lib/clickhouse/coordination/log</log_storage_path>
        <snapshot_storage_path>/var/lib/clickhouse/coordination/snapshots</snapshot_storage_path>
        <coordination_settings>
            <operation_timeout_ms>10000</operation_timeout_ms>
            <session_timeout_ms>30000</session_timeout_ms>
        </coordination_settings>
        <raft_configuration>
            <server>
                <id>1</id>
                <hostname>localhost</hostname>
                <port>9234</port>
            </server>
        </raft_configuration>
    </keeper_server>
    <zookeeper>
        <node>
            <host>localhost</host>
            <port>9181</port>
        </node>
    </zookeeper>
    <remote_servers>
        <{{ .Cluster }}>
            <shard>
                <internal_replication>true</internal_replication>
                <replica>
                    <host>localhost</host>
                    <port>9000</port>
                </replica>
            </shard>
        </{{ .Cluster }}>
    </remote_servers>
    <macros>
        <cluster>{{ .Cluster }}</cluster>
        <shard>01</shard>
        <replica>replica-01</replica>
    </macros>
    <distributed_ddl>
        <path>/clickhouse/task_queue/ddl</path>
    </distributed_ddl>
</clickhouse>
`))

// writeClusterConfig renders the single-node cluster config into dir and
// returns the file path.
func writeClusterConfig(dir, cluster string) (string, error) {
	if !clusterNamePattern.MatchString(cluster) {
		return "", errors.Errorf("cluster name %q must be a valid XML element name", cluster)
	}

	var buf bytes.Buffer
	if err := clusterConfig.Execute(&buf, struct{ Cluster string }{cluster}); err != nil {
		return "", errors.Wrap(err, "failed to render cluster config")
	}

	path := filepath.Join(dir, "cluster.xml")
	if err := os.WriteFile(path, buf.Bytes(), consts.ModeFile); err != nil {
		return "", errors.Wrapf(err, "failed to write cluster config: %s", path)
	}

	return path, nil
}
