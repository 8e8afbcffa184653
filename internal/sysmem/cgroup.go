// Package sysmem probes host/container memory so the external sort engine
// (§4.6) can pick a sane default memLimit. Ported from the teacher's
// util/sys/cgroup/cgroup.go and util/memory/meminfo.go, collapsed into one
// package since both exist only to answer "how much RAM do we have".
package sysmem

import (
	"bufio"
	"errors"
	"io"
	"io/ioutil"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	cGroupPath      = "/proc/self/cgroup"
	cGroupMountInfo = "/proc/self/mountinfo"
	cGroupFsType    = "cgroup"

	memSubSys       = "memory"
	memLimitInBytes = "memory.limit_in_bytes"
	memUsageInBytes = "memory.usage_in_bytes"

	mountInfoSep      = " "
	optionsSep        = ","
	optionalFieldsSep = "-"

	cGroupSep = ":"
	subSysSep = ","
)

const (
	subSysFieldsID = iota
	subSysFieldsSubSystems
	subSysFieldsName

	subSysFieldsCount
)

type cGroup struct {
	path string
}

func newCGroup(p string) *cGroup {
	return &cGroup{path: p}
}

func (cg *cGroup) readLine(param string) (string, error) {
	v, err := ioutil.ReadFile(path.Join(cg.path, param))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(v)), nil
}

func (cg *cGroup) readNum(param string) (uint64, error) {
	str, err := cg.readLine(param)
	if err != nil {
		return 0, err
	}
	return parseUint(str, 10, 64)
}

func parseUint(s string, base, bitSize int) (uint64, error) {
	v, err := strconv.ParseUint(s, base, bitSize)
	if err != nil {
		intValue, intErr := strconv.ParseInt(s, base, bitSize)
		if intErr == nil && intValue < 0 {
			return 0, nil
		} else if intErr != nil &&
			errors.Is(intErr, strconv.ErrRange) &&
			intValue < 0 {
			return 0, nil
		}
		return 0, err
	}
	return v, nil
}

type cGroupSubSys struct {
	id         uint64
	subSystems []string
	name       string
}

// cGroupSys resolves the on-disk cgroup files backing each subsystem
// (memory, cpu, ...) for the current process.
type cGroupSys struct {
	cGroups map[string]*cGroup
}

func newCGroupSys(cGroupFile, mountInfoFile string) *cGroupSys {
	subSystems := make(map[string]*cGroupSubSys)

	f, err := os.Open(cGroupFile)
	if err != nil {
		return &cGroupSys{cGroups: map[string]*cGroup{}}
	}
	defer f.Close()
	br := bufio.NewReader(f)
	for {
		line, _, err := br.ReadLine()
		if err != nil {
			break
		}
		subSyss, err := parseSubSysFromString(string(line))
		if err != nil {
			continue
		}
		for _, subSys := range subSyss.subSystems {
			subSystems[subSys] = subSyss
		}
	}

	cGroups := make(map[string]*cGroup)
	mf, err := os.Open(mountInfoFile)
	if err != nil {
		return &cGroupSys{cGroups: cGroups}
	}
	defer mf.Close()
	mbr := bufio.NewReader(mf)
	for {
		line, _, err := mbr.ReadLine()
		if err != nil {
			if err == io.EOF {
				break
			}
			break
		}
		mp, err := parseMountPointFromString(string(line))
		if err != nil {
			continue
		}
		if mp.fsType == cGroupFsType {
			for _, op := range mp.superOptions {
				if sub, ok := subSystems[op]; ok {
					if subPath, err := mp.translate(sub.name); err == nil {
						cGroups[op] = newCGroup(subPath)
					}
				}
			}
		}
	}
	return &cGroupSys{cGroups: cGroups}
}

type mountPoint struct {
	mountID        uint64
	parentID       uint64
	deviceID       string
	root           string
	mountPoint     string
	option         []string
	optionalFields []string
	fsType         string
	mountSource    string
	superOptions   []string
}

func (mp *mountPoint) translate(absPath string) (string, error) {
	rel, err := filepath.Rel(mp.root, absPath)
	if err != nil {
		return "", err
	}
	return path.Join(mp.mountPoint, rel), nil
}

func (cgs *cGroupSys) memoryLimitInBytes() uint64 {
	if cg, ok := cgs.cGroups[memSubSys]; ok {
		if limit, err := cg.readNum(memLimitInBytes); err == nil {
			return limit
		}
	}
	return 0
}

func (cgs *cGroupSys) memoryUsageInBytes() uint64 {
	if cg, ok := cgs.cGroups[memSubSys]; ok {
		if usage, err := cg.readNum(memUsageInBytes); err == nil {
			return usage
		}
	}
	return 0
}

// InContainer reports whether this process appears to run inside a
// container, by sniffing /proc/self/cgroup for known runtime markers.
func InContainer() bool {
	v, err := ioutil.ReadFile(cGroupPath)
	if err != nil {
		return false
	}
	s := string(v)
	return strings.Contains(s, "docker") ||
		strings.Contains(s, "kubepods") ||
		strings.Contains(s, "containerd")
}

func parseSubSysFromString(line string) (*cGroupSubSys, error) {
	fields := strings.Split(line, cGroupSep)
	if len(fields) != subSysFieldsCount {
		return nil, errors.New("subsystem format invalid")
	}
	id, err := parseUint(fields[subSysFieldsID], 10, 64)
	if err != nil {
		return nil, err
	}
	return &cGroupSubSys{
		id:         id,
		subSystems: strings.Split(fields[subSysFieldsSubSystems], subSysSep),
		name:       fields[subSysFieldsName],
	}, nil
}

const (
	mountInfoPart1MountID = iota
	mountInfoPart1ParentID
	mountInfoPart1DeviceID
	mountInfoPart1Root
	mountInfoPart1MountPoint
	mountInfoPart1Options
	mountInfoPart1OptionalFields

	mountInfoPart1Count
)

const (
	mountInfoPart2FSType = iota
	mountInfoPart2MountSource
	mountInfoPart2SuperOptions

	mountInfoPart2Count
)

func parseMountPointFromString(line string) (*mountPoint, error) {
	fields := strings.Split(line, mountInfoSep)
	if len(fields) < mountInfoPart1Count+mountInfoPart2Count {
		return nil, errors.New("mount point format invalid")
	}

	sepPos := mountInfoPart1OptionalFields
	foundSep := false
	for _, field := range fields[mountInfoPart1OptionalFields:] {
		if field == optionalFieldsSep {
			foundSep = true
			break
		}
		sepPos++
	}
	if !foundSep {
		return nil, errors.New("mount point format invalid, missing optional field separator")
	}
	fsStart := sepPos + 1

	mountID, err := parseUint(fields[mountInfoPart1MountID], 10, 64)
	if err != nil {
		return nil, err
	}
	parentID, err := parseUint(fields[mountInfoPart1ParentID], 10, 64)
	if err != nil {
		return nil, err
	}
	return &mountPoint{
		mountID:        mountID,
		parentID:       parentID,
		deviceID:       fields[mountInfoPart1DeviceID],
		root:           fields[mountInfoPart1Root],
		mountPoint:     fields[mountInfoPart1MountPoint],
		option:         strings.Split(fields[mountInfoPart1Options], optionsSep),
		optionalFields: fields[mountInfoPart1OptionalFields : fsStart-1],
		fsType:         fields[fsStart+mountInfoPart2FSType],
		mountSource:    fields[fsStart+mountInfoPart2MountSource],
		superOptions:   strings.Split(fields[fsStart+mountInfoPart2SuperOptions], optionsSep),
	}, nil
}

var cgroupInstance = newCGroupSys(cGroupPath, cGroupMountInfo)
