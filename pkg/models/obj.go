package models

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/taigrr/lumen/pkg/math3d"
)

// OBJLoader parses Wavefront OBJ files and their MTL libraries.
type OBJLoader struct {
	// CalculateNormals fills flat normals for corners without a vn index.
	CalculateNormals bool
}

// NewOBJLoader creates a new OBJ loader with default options.
func NewOBJLoader() *OBJLoader {
	return &OBJLoader{CalculateNormals: true}
}

// LoadOBJ loads an OBJ file with the default loader options.
func LoadOBJ(path string) (*Scene, error) {
	return NewOBJLoader().Load(path)
}

// Load reads the OBJ file at path and every material library it references.
func (l *OBJLoader) Load(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open obj: %w", err)
	}
	defer f.Close()

	scene, err := l.parse(f, filepath.Base(path), filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	return scene, nil
}

type objParser struct {
	dir     string
	name    string
	mesh    *Mesh
	library map[string]Material

	instances []Instance
	current   *Instance
	material  string // active usemtl name
}

func (l *OBJLoader) parse(r io.Reader, name, dir string) (*Scene, error) {
	p := &objParser{
		dir:     dir,
		name:    name,
		mesh:    NewMesh(name),
		library: make(map[string]Material),
	}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)
		if err := p.statement(fields); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", name, lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read obj: %w", err)
	}

	p.flush()
	mesh := p.mesh
	if l.CalculateNormals {
		mesh.CalculateNormals()
	}
	for i := range p.instances {
		in := &p.instances[i]
		var tangentFaces []int
		for _, fi := range in.Faces {
			if m := in.Material(mesh.Faces[fi].Material); m != nil && m.HasTangentMaps() {
				tangentFaces = append(tangentFaces, fi)
			}
		}
		mesh.CalculateTangents(tangentFaces)
	}

	return &Scene{
		Mesh:      mesh,
		Instances: p.instances,
		Camera:    DefaultCamera(),
	}, nil
}

func (p *objParser) statement(fields []string) error {
	args := fields[1:]
	switch fields[0] {
	case "mtllib":
		for _, lib := range args {
			if err := p.loadLibrary(filepath.Join(p.dir, lib)); err != nil {
				return err
			}
		}
	case "usemtl":
		if len(args) < 1 {
			return fmt.Errorf("usemtl: missing name")
		}
		if _, ok := p.library[args[0]]; !ok {
			return fmt.Errorf("usemtl: unknown material %q", args[0])
		}
		p.material = args[0]
	case "o":
		p.flush()
		name := p.name
		if len(args) > 0 {
			name = strings.Join(args, " ")
		}
		p.current = &Instance{Name: name}
	case "v":
		v, err := parseVec3(args)
		if err != nil {
			return fmt.Errorf("v: %w", err)
		}
		p.mesh.Positions = append(p.mesh.Positions, v)
	case "vn":
		v, err := parseVec3(args)
		if err != nil {
			return fmt.Errorf("vn: %w", err)
		}
		p.mesh.Normals = append(p.mesh.Normals, v)
	case "vt":
		if len(args) < 2 {
			return fmt.Errorf("vt: want 2 components, got %d", len(args))
		}
		u, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("vt: %w", err)
		}
		v, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("vt: %w", err)
		}
		p.mesh.UVs = append(p.mesh.UVs, math3d.V2(u, v))
	case "f":
		return p.face(args)
	}
	return nil
}

func (p *objParser) face(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("f: want 3 corners, got %d", len(args))
	}
	if len(args) > 3 {
		return fmt.Errorf("f: non-triangular face with %d corners", len(args))
	}

	var face Face
	for i, tok := range args {
		c, err := p.corner(tok)
		if err != nil {
			return fmt.Errorf("f: corner %q: %w", tok, err)
		}
		face.Corners[i] = c
	}

	if p.current == nil {
		p.current = &Instance{Name: "default"}
	}
	face.Material = -1
	if p.material != "" {
		face.Material = p.current.bindMaterial(p.library[p.material])
	}

	p.mesh.Faces = append(p.mesh.Faces, face)
	p.current.Faces = append(p.current.Faces, len(p.mesh.Faces)-1)
	return nil
}

// corner parses v, v/vt, v//vn or v/vt/vn.
func (p *objParser) corner(tok string) (Corner, error) {
	parts := strings.Split(tok, "/")
	if len(parts) > 3 {
		return Corner{}, fmt.Errorf("too many components")
	}
	var idx [3]int
	pools := [3]int{len(p.mesh.Positions), len(p.mesh.UVs), len(p.mesh.Normals)}
	for i, s := range parts {
		if s == "" {
			if i == 0 {
				return Corner{}, fmt.Errorf("missing vertex index")
			}
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return Corner{}, err
		}
		if n < 0 {
			n = pools[i] + n + 1
		}
		if n < 1 || n > pools[i] {
			return Corner{}, fmt.Errorf("index %s out of range", s)
		}
		idx[i] = n
	}
	return Corner{V: idx[0], VT: idx[1], VN: idx[2]}, nil
}

// flush closes the current instance.
func (p *objParser) flush() {
	if p.current != nil && len(p.current.Faces) > 0 {
		p.instances = append(p.instances, *p.current)
	}
	p.current = nil
}

func (p *objParser) loadLibrary(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open mtl: %w", err)
	}
	defer f.Close()

	mats, err := parseMTL(f, filepath.Base(path), filepath.Dir(path))
	if err != nil {
		return err
	}
	for _, m := range mats {
		p.library[m.Name] = m
		p.mesh.Materials = append(p.mesh.Materials, m)
	}
	return nil
}

// parseMTL reads the materials of one MTL library in declaration order.
// Texture paths are resolved against dir.
func parseMTL(r io.Reader, name, dir string) ([]Material, error) {
	var mats []Material
	var cur *Material

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)
		key, args := fields[0], fields[1:]

		if key == "newmtl" {
			if len(args) < 1 {
				return nil, fmt.Errorf("%s:%d: newmtl: missing name", name, lineNo)
			}
			mats = append(mats, Material{Name: args[0]})
			cur = &mats[len(mats)-1]
			continue
		}
		if cur == nil {
			continue
		}

		var err error
		switch key {
		case "Ns":
			if len(args) < 1 {
				err = fmt.Errorf("Ns: missing value")
				break
			}
			cur.Ns, err = strconv.ParseFloat(args[0], 64)
		case "Ka":
			cur.Ka, err = parseVec3(args)
		case "Kd":
			cur.Kd, err = parseVec3(args)
		case "Ks":
			cur.Ks, err = parseVec3(args)
		case "Ke":
			cur.Ke, err = parseVec3(args)
		case "map_Kd":
			cur.ColorMap, err = texturePath(dir, args)
		case "map_Bump", "map_bump", "bump":
			cur.NormalMap, err = texturePath(dir, args)
		case "disp":
			cur.HeightMap, err = texturePath(dir, args)
		}
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", name, lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read mtl: %w", err)
	}
	return mats, nil
}

// texturePath takes the last argument of a map statement, skipping any
// options in front of it.
func texturePath(dir string, args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("texture statement without a file")
	}
	p := args[len(args)-1]
	if filepath.IsAbs(p) {
		return p, nil
	}
	return filepath.Join(dir, p), nil
}

func parseVec3(args []string) (math3d.Vec3, error) {
	if len(args) < 3 {
		return math3d.Vec3{}, fmt.Errorf("want 3 components, got %d", len(args))
	}
	var v math3d.Vec3
	for i := range 3 {
		f, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return math3d.Vec3{}, err
		}
		v[i] = f
	}
	return v, nil
}
